package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gloss/internal/glossary"
	"github.com/roach88/gloss/internal/synonym"
	"github.com/roach88/gloss/internal/testutil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustResolver(t *testing.T, groups []glossary.SynonymGroup) *synonym.Resolver {
	t.Helper()
	r, err := synonym.NewResolver(groups)
	require.NoError(t, err)
	return r
}

func TestDefineTerms_SynonymGroupYieldsOnePrimaryTerm(t *testing.T) {
	docs := []glossary.Document{
		testutil.Doc("a.md",
			"the LM answers questions",
			"a language model is trained",
			"LLM inference is slow",
			"unrelated line",
		),
	}
	groups := []glossary.SynonymGroup{{
		ID:          1,
		PrimaryTerm: "LM",
		Members: []glossary.SynonymMember{
			{TermText: "LM"}, {TermText: "language model"}, {TermText: "LLM"},
		},
	}}

	client := testutil.LLMFunc(func(_ context.Context, prompt, schema string, out any) error {
		return testutil.DecodeJSON(schema, `{"definition": "an external text generator", "confidence": 0.9}`, out)
	})

	g := DefineTerms(context.Background(), client,
		[]string{"LM", "language model", "LLM"},
		mustResolver(t, groups), docs, discardLogger(), nil)

	// Exactly one entry, named after the primary.
	require.Len(t, g.Terms, 1)
	term, ok := g.Terms["LM"]
	require.True(t, ok)

	// Occurrences cover lines matching the primary or any alias.
	require.Len(t, term.Occurrences, 3)
	lines := []int{term.Occurrences[0].LineNumber, term.Occurrences[1].LineNumber, term.Occurrences[2].LineNumber}
	assert.Equal(t, []int{1, 2, 3}, lines)
	assert.Equal(t, "an external text generator", term.Definition)
	assert.InDelta(t, 0.9, term.Confidence, 1e-9)
}

func TestDefineTerms_OneFailureDoesNotAbortStage(t *testing.T) {
	docs := []glossary.Document{testutil.Doc("a.md", "alpha and beta")}

	client := testutil.LLMFunc(func(_ context.Context, prompt, schema string, out any) error {
		if strings.Contains(prompt, "Term: alpha") {
			return errors.New("service unavailable")
		}
		return testutil.DecodeJSON(schema, `{"definition": "ok", "confidence": 0.5}`, out)
	})

	g := DefineTerms(context.Background(), client,
		[]string{"alpha", "beta"}, mustResolver(t, nil), docs, discardLogger(), nil)

	require.Len(t, g.Terms, 1)
	assert.Contains(t, g.Terms, "beta")
}

func TestDefineTerms_ProgressReported(t *testing.T) {
	docs := []glossary.Document{testutil.Doc("a.md", "alpha beta gamma")}
	client := testutil.LLMFunc(func(_ context.Context, _, schema string, out any) error {
		return testutil.DecodeJSON(schema, `{"definition": "d", "confidence": 0.1}`, out)
	})

	var calls [][2]int
	progress := func(current, total int, _ string) {
		calls = append(calls, [2]int{current, total})
	}

	DefineTerms(context.Background(), client,
		[]string{"alpha", "beta", "gamma"}, mustResolver(t, nil), docs, discardLogger(), progress)

	require.Len(t, calls, 3)
	assert.Equal(t, [2]int{1, 3}, calls[0])
	assert.Equal(t, [2]int{3, 3}, calls[2])
}

func TestDefineTerms_CapsPromptContextsAtFive(t *testing.T) {
	lines := make([]string, 8)
	for i := range lines {
		lines[i] = "widget appears here"
	}
	docs := []glossary.Document{testutil.Doc("a.md", lines...)}

	rec := &testutil.RecordingLLM{Inner: testutil.LLMFunc(func(_ context.Context, _, schema string, out any) error {
		return testutil.DecodeJSON(schema, `{"definition": "d", "confidence": 0.1}`, out)
	})}

	g := DefineTerms(context.Background(), rec, []string{"widget"},
		mustResolver(t, nil), docs, discardLogger(), nil)

	// All eight occurrences stay on the term.
	require.Len(t, g.Terms["widget"].Occurrences, 8)

	// But the prompt shows only five excerpts.
	prompts := rec.Prompts()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "[5] ")
	assert.NotContains(t, prompts[0], "[6] ")
}

func TestDefineTerms_RelatedTermsDeduplicated(t *testing.T) {
	docs := []glossary.Document{testutil.Doc("a.md", "alpha here")}
	client := testutil.LLMFunc(func(_ context.Context, _, schema string, out any) error {
		return testutil.DecodeJSON(schema,
			`{"definition": "d", "confidence": 0.1, "related_terms": ["beta", "gamma", "beta"]}`, out)
	})

	g := DefineTerms(context.Background(), client, []string{"alpha"},
		mustResolver(t, nil), docs, discardLogger(), nil)

	assert.Equal(t, []string{"beta", "gamma"}, g.Terms["alpha"].RelatedTerms)
}

func TestDefineTerms_ZeroOccurrencesStillDefined(t *testing.T) {
	docs := []glossary.Document{testutil.Doc("a.md", "nothing relevant")}
	client := testutil.LLMFunc(func(_ context.Context, prompt, schema string, out any) error {
		assert.Contains(t, prompt, "No usage excerpts were found")
		return testutil.DecodeJSON(schema, `{"definition": "guessed", "confidence": 0.2}`, out)
	})

	g := DefineTerms(context.Background(), client, []string{"phantom"},
		mustResolver(t, nil), docs, discardLogger(), nil)

	require.Contains(t, g.Terms, "phantom")
	assert.Empty(t, g.Terms["phantom"].Occurrences)
}
