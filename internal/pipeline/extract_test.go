package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gloss/internal/glossary"
	"github.com/roach88/gloss/internal/testutil"
)

func TestExtractTerms_DeduplicatesAcrossDocuments(t *testing.T) {
	docs := []glossary.Document{
		testutil.Doc("a.md", "about caches"),
		testutil.Doc("b.md", "about caches and queues"),
	}

	client := testutil.LLMFunc(func(_ context.Context, prompt, schema string, out any) error {
		if strings.Contains(prompt, "Document: a.md") {
			return testutil.DecodeJSON(schema, `{"terms": ["cache", "  eviction  ", ""]}`, out)
		}
		return testutil.DecodeJSON(schema, `{"terms": ["queue", "cache"]}`, out)
	})

	got := ExtractTerms(context.Background(), client, docs, discardLogger(), nil)

	// Trimmed, empties dropped, duplicates collapse, first appearance wins.
	assert.Equal(t, []string{"cache", "eviction", "queue"}, got)
}

func TestExtractTerms_FailedDocumentSkipped(t *testing.T) {
	docs := []glossary.Document{
		testutil.Doc("a.md", "first"),
		testutil.Doc("b.md", "second"),
	}

	client := testutil.LLMFunc(func(_ context.Context, prompt, schema string, out any) error {
		if strings.Contains(prompt, "Document: a.md") {
			return errors.New("rate limited")
		}
		return testutil.DecodeJSON(schema, `{"terms": ["survivor"]}`, out)
	})

	var steps int
	progress := func(_, total int, step string) {
		steps++
		assert.Equal(t, 2, total)
		assert.Equal(t, "extract", step)
	}

	got := ExtractTerms(context.Background(), client, docs, discardLogger(), progress)

	assert.Equal(t, []string{"survivor"}, got)
	// Progress advances past the failed document too.
	assert.Equal(t, 2, steps)
}

func TestExtractTerms_NoDocuments(t *testing.T) {
	client := testutil.LLMFunc(func(context.Context, string, string, any) error {
		t.Fatal("no documents, no calls")
		return nil
	})

	got := ExtractTerms(context.Background(), client, nil, discardLogger(), nil)
	require.Empty(t, got)
}
