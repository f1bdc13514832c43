package runner

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gloss/internal/glossary"
	"github.com/roach88/gloss/internal/store"
	"github.com/roach88/gloss/internal/testutil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "gloss.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

// happyClient answers every pipeline stage with a minimal valid response.
// Stages are told apart by their prompt's first line.
func happyClient(t *testing.T) testutil.LLMFunc {
	return func(_ context.Context, prompt, schema string, out any) error {
		t.Helper()
		switch {
		case strings.HasPrefix(prompt, "You are building a glossary"):
			return testutil.DecodeJSON(schema, `{"terms": ["cache"]}`, out)
		case strings.HasPrefix(prompt, "You are writing glossary definitions"):
			return testutil.DecodeJSON(schema, `{"definition": "initial definition", "confidence": 0.5}`, out)
		case strings.HasPrefix(prompt, "You are reviewing"):
			return testutil.DecodeJSON(schema,
				`{"issues": [{"term_name": "cache", "issue_type": "unclear", "description": "vague"}]}`, out)
		case strings.HasPrefix(prompt, "You are improving"):
			return testutil.DecodeJSON(schema, `{"refined_definition": "refined definition", "confidence": 0.9}`, out)
		default:
			t.Errorf("unexpected prompt: %q", prompt)
			return nil
		}
	}
}

func waitDone(t *testing.T, h *Handle) {
	t.Helper()
	select {
	case <-h.Done():
	case <-time.After(10 * time.Second):
		t.Fatal("run did not finish")
	}
}

func corpus() []glossary.Document {
	return []glossary.Document{
		testutil.Doc("a.md", "intro line", "the cache holds parsed documents", "outro line"),
	}
}

func TestManager_FullRunCompletesAndPersists(t *testing.T) {
	st := openTestStore(t)
	mgr := NewManager(st, happyClient(t), discardLogger())
	ctx := context.Background()

	h, err := mgr.Start(ctx, StartRequest{
		ProjectID: "proj",
		Scope:     glossary.ScopeFull,
		Documents: corpus(),
	})
	require.NoError(t, err)
	waitDone(t, h)

	run, err := st.GetRun(ctx, h.RunID())
	require.NoError(t, err)
	assert.Equal(t, glossary.RunCompleted, run.Status)
	require.NotNil(t, run.FinishedAt)
	assert.Empty(t, run.ErrorMessage)

	g, err := st.LoadGlossary(ctx, "proj")
	require.NoError(t, err)
	require.Contains(t, g.Terms, "cache")
	assert.Equal(t, "refined definition", g.Terms["cache"].Definition)
	require.Len(t, g.Terms["cache"].Occurrences, 1)
	assert.Equal(t, 2, g.Terms["cache"].Occurrences[0].LineNumber)

	issues, err := st.LoadIssues(ctx, "proj")
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "cache", issues[0].TermName)
}

func TestManager_SecondStartOnSameProjectConflicts(t *testing.T) {
	st := openTestStore(t)
	proceed := make(chan struct{})
	client := testutil.LLMFunc(func(_ context.Context, _, schema string, out any) error {
		<-proceed
		return testutil.DecodeJSON(schema, `{"terms": []}`, out)
	})
	mgr := NewManager(st, client, discardLogger())
	ctx := context.Background()

	h1, err := mgr.Start(ctx, StartRequest{ProjectID: "proj", Scope: glossary.ScopeFull, Documents: corpus()})
	require.NoError(t, err)

	_, err = mgr.Start(ctx, StartRequest{ProjectID: "proj", Scope: glossary.ScopeFull, Documents: corpus()})
	assert.ErrorIs(t, err, store.ErrRunActive)

	// Another project is unaffected by proj's running run.
	h2, err := mgr.Start(ctx, StartRequest{ProjectID: "other", Scope: glossary.ScopeFull, Documents: corpus()})
	require.NoError(t, err)

	close(proceed)
	waitDone(t, h1)
	waitDone(t, h2)

	// Once the first run is terminal the project accepts a new one.
	h3, err := mgr.Start(ctx, StartRequest{ProjectID: "proj", Scope: glossary.ScopeFull, Documents: corpus()})
	require.NoError(t, err)
	waitDone(t, h3)
}

func TestManager_CancelProducesCancelledStatus(t *testing.T) {
	st := openTestStore(t)
	proceed := make(chan struct{})
	client := testutil.LLMFunc(func(_ context.Context, _, schema string, out any) error {
		<-proceed
		return testutil.DecodeJSON(schema, `{"terms": ["cache"]}`, out)
	})
	mgr := NewManager(st, client, discardLogger())
	ctx := context.Background()

	h, err := mgr.Start(ctx, StartRequest{ProjectID: "proj", Scope: glossary.ScopeFull, Documents: corpus()})
	require.NoError(t, err)

	// Cancel while the extract stage is in flight; the worker observes the
	// flag at the next stage boundary.
	mgr.Cancel(h.RunID())
	close(proceed)
	waitDone(t, h)

	run, err := st.GetRun(ctx, h.RunID())
	require.NoError(t, err)
	assert.Equal(t, glossary.RunCancelled, run.Status)

	// The run never reached the define stage, so nothing was persisted.
	g, err := st.LoadGlossary(ctx, "proj")
	require.NoError(t, err)
	assert.Empty(t, g.Terms)
}

func TestManager_CancelUnknownRunIsNoOp(t *testing.T) {
	st := openTestStore(t)
	mgr := NewManager(st, happyClient(t), discardLogger())
	mgr.Cancel("no-such-run")
}

func TestManager_InvalidScopeRejected(t *testing.T) {
	st := openTestStore(t)
	mgr := NewManager(st, happyClient(t), discardLogger())

	_, err := mgr.Start(context.Background(), StartRequest{ProjectID: "proj", Scope: "everything"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid scope")
}

func TestManager_SubScopeWithoutStoredGlossaryFails(t *testing.T) {
	st := openTestStore(t)
	mgr := NewManager(st, happyClient(t), discardLogger())
	ctx := context.Background()

	h, err := mgr.Start(ctx, StartRequest{ProjectID: "empty", Scope: glossary.ScopeReview})
	require.NoError(t, err)
	waitDone(t, h)

	run, err := st.GetRun(ctx, h.RunID())
	require.NoError(t, err)
	assert.Equal(t, glossary.RunFailed, run.Status)
	assert.Contains(t, run.ErrorMessage, "no stored glossary")
}

func TestManager_ReviewScopeResumesFromStoredTerms(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	seed := glossary.NewGlossary()
	seed.Terms["cache"] = &glossary.Term{Name: "cache", Definition: "stale definition", Confidence: 0.3}
	conn, err := st.Acquire(ctx)
	require.NoError(t, err)
	require.NoError(t, conn.SaveGlossaryTerms(ctx, "proj", seed))
	require.NoError(t, conn.Close())

	mgr := NewManager(st, happyClient(t), discardLogger())
	h, err := mgr.Start(ctx, StartRequest{ProjectID: "proj", Scope: glossary.ScopeReview, Documents: corpus()})
	require.NoError(t, err)
	waitDone(t, h)

	run, err := st.GetRun(ctx, h.RunID())
	require.NoError(t, err)
	assert.Equal(t, glossary.RunCompleted, run.Status)

	g, err := st.LoadGlossary(ctx, "proj")
	require.NoError(t, err)
	assert.Equal(t, "refined definition", g.Terms["cache"].Definition)
}

func TestManager_QueueStreamEndsAfterTerminalStatus(t *testing.T) {
	st := openTestStore(t)
	mgr := NewManager(st, happyClient(t), discardLogger())
	ctx := context.Background()

	h, err := mgr.Start(ctx, StartRequest{ProjectID: "proj", Scope: glossary.ScopeFull, Documents: corpus()})
	require.NoError(t, err)
	waitDone(t, h)

	var messages []string
	var lastSeq int64
	for {
		e, ok := h.Poll(time.Second)
		if !ok {
			break
		}
		if e.Keepalive {
			continue
		}
		require.Greater(t, e.Seq, lastSeq)
		lastSeq = e.Seq
		messages = append(messages, e.Message)
	}

	require.NotEmpty(t, messages)
	assert.Contains(t, messages[len(messages)-1], "finalizing run")
}
