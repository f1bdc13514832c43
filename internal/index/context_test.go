package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gloss/internal/glossary"
	"github.com/roach88/gloss/internal/testutil"
)

func TestContextIndex_LookupFindsFullTerm(t *testing.T) {
	docs := []glossary.Document{
		testutil.Doc("a.md",
			"the order book holds resting orders",
			"an order arrives",
			"book a meeting room",
		),
	}
	idx := BuildContextIndex(docs)

	got := idx.Lookup("order book", 5)
	require.Len(t, got, 1)
	assert.Equal(t, "[a.md:1] the order book holds resting orders", got[0])
}

func TestContextIndex_FiltersPartialWordOverlap(t *testing.T) {
	docs := []glossary.Document{
		testutil.Doc("a.md",
			"orders everywhere",
			"books everywhere",
		),
	}
	idx := BuildContextIndex(docs)

	// Both tokens appear somewhere, but no line contains the full term.
	assert.Empty(t, idx.Lookup("order book", 5))
}

func TestContextIndex_CaseInsensitive(t *testing.T) {
	docs := []glossary.Document{
		testutil.Doc("a.md", "The Event Horizon is a boundary"),
	}
	idx := BuildContextIndex(docs)

	got := idx.Lookup("event horizon", 5)
	assert.Len(t, got, 1)
}

func TestContextIndex_CapsResults(t *testing.T) {
	lines := make([]string, 10)
	for i := range lines {
		lines[i] = "the widget spins"
	}
	docs := []glossary.Document{testutil.Doc("a.md", lines...)}
	idx := BuildContextIndex(docs)

	got := idx.Lookup("widget", 5)
	assert.Len(t, got, 5)
}

func TestContextIndex_NoDuplicateEntriesPerLine(t *testing.T) {
	docs := []glossary.Document{
		testutil.Doc("a.md", "widget widget widget"),
	}
	idx := BuildContextIndex(docs)

	got := idx.Lookup("widget", 0)
	assert.Len(t, got, 1)
}

func TestContextIndex_EmptyTerm(t *testing.T) {
	idx := BuildContextIndex(nil)
	assert.Empty(t, idx.Lookup("", 5))
	assert.Zero(t, idx.Tokens())
}
