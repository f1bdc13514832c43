package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/roach88/gloss/internal/glossary"
	"github.com/roach88/gloss/internal/pipeline"
	"github.com/roach88/gloss/internal/sanitize"
	"github.com/roach88/gloss/internal/store"
	"github.com/roach88/gloss/internal/synonym"
)

// errCancelled flows out of execute when the cancellation flag was observed
// at a boundary. It is not a failure; the worker maps it to the cancelled
// terminal status.
var errCancelled = errors.New("run cancelled")

// work is the background worker bound to one run. It owns the pinned store
// connection for the run's duration, executes the scope's stages in order,
// writes the terminal status exactly once, and only then ends the queue.
func (m *Manager) work(h *Handle, conn *store.Conn, run *glossary.Run, req StartRequest, resolver *synonym.Resolver) {
	ctx := context.Background()
	log := slog.New(newQueueHandler(h.queue, h.clk))

	err := m.execute(ctx, conn, run, req, resolver, h, log)

	status := glossary.RunCompleted
	msg := ""
	switch {
	case errors.Is(err, errCancelled):
		status = glossary.RunCancelled
	case err != nil:
		status = glossary.RunFailed
		msg = sanitize.Error(err, sanitize.WithPrefix("run failed"))
	}

	log.Info("finalizing run", "status", string(status))
	if ferr := conn.FinalizeRun(ctx, run.ID, status, msg); ferr != nil {
		m.log.Error("failed to finalize run", "run", run.ID, "error", ferr)
	}
	m.log.Info("run finished", "run", run.ID, "status", string(status))

	// Terminal status is written; no further queue writes happen after the
	// sentinel.
	h.queue.End()
	conn.Close()

	m.mu.Lock()
	delete(m.runs, run.ID)
	m.mu.Unlock()
	close(h.done)
}

// execute runs the scope's stages in pipeline order, polling the
// cancellation flag before each stage boundary. Item- and batch-level LM
// failures are absorbed inside the stages; anything returned from here
// fails (or cancels) the run.
func (m *Manager) execute(
	ctx context.Context,
	conn *store.Conn,
	run *glossary.Run,
	req StartRequest,
	resolver *synonym.Resolver,
	h *Handle,
	log *slog.Logger,
) error {
	checkpoint := func() error {
		if h.cancel.Cancelled() {
			return errCancelled
		}
		return nil
	}

	progress := func(step string) pipeline.ProgressFunc {
		return func(current, total int, _ string) {
			if err := conn.UpdateRunProgress(ctx, run.ID, current, total, step); err != nil {
				// Progress rows are telemetry; a failed write is logged,
				// not fatal.
				log.Warn("progress write failed", "step", step, "error", err)
			}
			h.queue.Push(&Entry{
				Seq:     h.clk.Next(),
				Level:   slog.LevelInfo,
				Message: fmt.Sprintf("%s %d/%d", step, current, total),
			})
		}
	}

	docs := req.Documents
	var (
		g          *glossary.Glossary
		candidates []string
	)

	// Sub-scopes resume from stored state instead of re-extracting.
	if run.Scope != glossary.ScopeFull {
		loaded, err := m.store.LoadGlossary(ctx, run.ProjectID)
		if err != nil {
			return err
		}
		if len(loaded.Terms) == 0 {
			return fmt.Errorf("scope %s: project %s has no stored glossary", run.Scope, run.ProjectID)
		}
		g = loaded
	}

	if run.Scope == glossary.ScopeFull {
		if err := checkpoint(); err != nil {
			return err
		}
		candidates = pipeline.ExtractTerms(ctx, m.client, docs, log, progress("extract"))
	} else if run.Scope == glossary.ScopeDefine {
		candidates = g.TermNames()
		sort.Strings(candidates)
	}

	if run.Scope == glossary.ScopeFull || run.Scope == glossary.ScopeDefine {
		if err := checkpoint(); err != nil {
			return err
		}
		g = pipeline.DefineTerms(ctx, m.client, candidates, resolver, docs, log, progress("define"))

		// Replace the stored glossary atomically: the clear and the term
		// writes live in one transactional unit (the inner save nests via
		// savepoint).
		err := conn.WithTx(ctx, func(ctx context.Context) error {
			if err := conn.ClearProjectRows(ctx, store.TableTerms, run.ProjectID); err != nil {
				return err
			}
			return conn.SaveGlossaryTerms(ctx, run.ProjectID, g)
		})
		if err != nil {
			return err
		}
	}

	var issues []glossary.GlossaryIssue
	if run.Scope == glossary.ScopeRefine {
		issues = g.Issues
	} else {
		if err := checkpoint(); err != nil {
			return err
		}
		outcome := pipeline.ReviewGlossary(ctx, m.client, g, req.ReviewBatchSize, h.cancel, log, progress("review"))
		if outcome.Cancelled {
			return errCancelled
		}
		issues = outcome.Issues

		err := conn.WithTx(ctx, func(ctx context.Context) error {
			if err := conn.ClearProjectRows(ctx, store.TableIssues, run.ProjectID); err != nil {
				return err
			}
			return conn.SaveIssues(ctx, run.ProjectID, issues)
		})
		if err != nil {
			return err
		}
		g.Issues = issues
	}

	if err := checkpoint(); err != nil {
		return err
	}
	pipeline.RefineGlossary(ctx, m.client, g, issues, docs, log, progress("refine"))

	return conn.SaveGlossaryTerms(ctx, run.ProjectID, g)
}
