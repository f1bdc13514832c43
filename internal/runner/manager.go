// Package runner owns the run lifecycle: the single-active-run invariant,
// the background worker that executes a run's stages, cooperative
// cancellation, and the bounded log/progress queue external observers poll.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/gloss/internal/glossary"
	"github.com/roach88/gloss/internal/llm"
	"github.com/roach88/gloss/internal/store"
	"github.com/roach88/gloss/internal/synonym"
)

// Manager starts, observes, and cancels pipeline runs. The "at most one
// running run per project" invariant is enforced by the store's
// check-and-insert, not by the in-memory map, so it survives races between
// concurrent start requests.
type Manager struct {
	store  *store.Store
	client llm.Client
	log    *slog.Logger

	mu   sync.Mutex
	runs map[string]*Handle
}

// NewManager creates a run manager. log is the manager's own operational
// logger; per-run messages flow through each run's queue instead.
func NewManager(st *store.Store, client llm.Client, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		store:  st,
		client: client,
		log:    log,
		runs:   make(map[string]*Handle),
	}
}

// StartRequest configures one run.
type StartRequest struct {
	ProjectID string
	Scope     glossary.RunScope

	// Documents is the loaded corpus the run scans. Owned by the run for
	// its duration; callers must not mutate it while the run is active.
	Documents []glossary.Document

	// Synonyms are the project's synonym groups (may be empty).
	Synonyms []glossary.SynonymGroup

	// ReviewBatchSize overrides the review stage's batch size when > 0.
	ReviewBatchSize int

	// QueueCapacity overrides the log queue capacity when > 0.
	QueueCapacity int
}

// Handle is the caller's view of a launched run: its id, its log/progress
// queue, and a completion signal. The terminal status lives in the store.
type Handle struct {
	runID  string
	queue  *LogQueue
	clk    *clock
	cancel *cancelFlag
	done   chan struct{}
}

// RunID returns the run's id.
func (h *Handle) RunID() string {
	return h.runID
}

// Poll waits up to timeout for the next queue entry. See LogQueue.Poll.
func (h *Handle) Poll(timeout time.Duration) (*Entry, bool) {
	return h.queue.Poll(timeout)
}

// Done is closed after the run's terminal status has been written and its
// queue has ended.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Start creates a run row (rejecting the request with store.ErrRunActive if
// the project already has a running run) and launches one background worker
// bound to it. The returned handle is the only way to observe the run's
// log stream; status is read from the store.
func (m *Manager) Start(ctx context.Context, req StartRequest) (*Handle, error) {
	if !glossary.ValidScope(req.Scope) {
		return nil, fmt.Errorf("start run: invalid scope %q", req.Scope)
	}
	resolver, err := synonym.NewResolver(req.Synonyms)
	if err != nil {
		return nil, fmt.Errorf("start run: %w", err)
	}

	conn, err := m.store.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("start run: %w", err)
	}

	run := &glossary.Run{
		ID:        newRunID(),
		ProjectID: req.ProjectID,
		Scope:     req.Scope,
		StartedAt: time.Now().UTC(),
	}
	if err := conn.CreateRun(ctx, run); err != nil {
		conn.Close()
		// store.ErrRunActive is the conflict signal; no row was created
		// and no worker is launched.
		return nil, err
	}

	handle := &Handle{
		runID:  run.ID,
		queue:  NewLogQueue(req.QueueCapacity),
		clk:    &clock{},
		cancel: &cancelFlag{},
		done:   make(chan struct{}),
	}

	m.mu.Lock()
	m.runs[run.ID] = handle
	m.mu.Unlock()

	m.log.Info("run started", "run", run.ID, "project", run.ProjectID, "scope", string(run.Scope))
	go m.work(handle, conn, run, req, resolver)

	return handle, nil
}

// Cancel requests cancellation of a run. The flag is one-way; the worker
// observes it at the next stage or batch boundary. Unknown or already
// terminal run ids are a no-op, not an error.
func (m *Manager) Cancel(runID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if handle, ok := m.runs[runID]; ok {
		handle.cancel.Set()
	}
}

// Run reads a run row by id. Thin passthrough for callers that hold a
// Manager but not the store.
func (m *Manager) Run(ctx context.Context, runID string) (*glossary.Run, error) {
	return m.store.GetRun(ctx, runID)
}

// newRunID returns a time-ordered UUIDv7, falling back to v4 if the
// monotonic source fails.
func newRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
