package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/gloss/internal/glossary"
)

var (
	// ErrRunActive is returned by CreateRun when the project already has a
	// run in the running state. The caller gets a conflict, not a new row.
	ErrRunActive = errors.New("a run is already active for this project")

	// ErrRunNotFound is returned when no run row matches the given id.
	ErrRunNotFound = errors.New("run not found")

	// ErrRunFinalized is returned when updating a run that has already
	// reached a terminal status. Terminal statuses are write-once.
	ErrRunFinalized = errors.New("run already finalized")
)

// CreateRun inserts a new run row with status running, failing with
// ErrRunActive if the project already has one. The existence check and the
// insert execute inside a single immediate transaction, so two concurrent
// start requests cannot both succeed.
func (c *Conn) CreateRun(ctx context.Context, run *glossary.Run) error {
	return c.WithTx(ctx, func(ctx context.Context) error {
		res, err := c.ExecContext(ctx, `
			INSERT INTO runs
			(id, project_id, scope, status, started_at, progress_current, progress_total, current_step)
			SELECT ?, ?, ?, ?, ?, 0, 0, ''
			WHERE NOT EXISTS (
				SELECT 1 FROM runs WHERE project_id = ? AND status = ?
			)
		`,
			run.ID,
			run.ProjectID,
			string(run.Scope),
			string(glossary.RunRunning),
			run.StartedAt.UTC().Format(time.RFC3339Nano),
			run.ProjectID,
			string(glossary.RunRunning),
		)
		if err != nil {
			return fmt.Errorf("create run: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("create run: rows affected: %w", err)
		}
		if n == 0 {
			return ErrRunActive
		}
		run.Status = glossary.RunRunning
		return nil
	})
}

// FinalizeRun writes a terminal status and optional error message, releasing
// the project's active-run slot in the same statement. Only a row still in
// the running state is updated; finalizing twice returns ErrRunFinalized.
func (c *Conn) FinalizeRun(ctx context.Context, runID string, status glossary.RunStatus, errMsg string) error {
	if !status.Terminal() {
		return fmt.Errorf("finalize run: %q is not a terminal status", status)
	}
	return c.WithTx(ctx, func(ctx context.Context) error {
		res, err := c.ExecContext(ctx, `
			UPDATE runs
			SET status = ?, error_message = ?, finished_at = ?
			WHERE id = ? AND status = ?
		`,
			string(status),
			errMsg,
			time.Now().UTC().Format(time.RFC3339Nano),
			runID,
			string(glossary.RunRunning),
		)
		if err != nil {
			return fmt.Errorf("finalize run: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("finalize run: rows affected: %w", err)
		}
		if n == 0 {
			var exists int
			if err := c.QueryRowContext(ctx,
				"SELECT COUNT(*) FROM runs WHERE id = ?", runID,
			).Scan(&exists); err != nil {
				return fmt.Errorf("finalize run: %w", err)
			}
			if exists == 0 {
				return ErrRunNotFound
			}
			return ErrRunFinalized
		}
		return nil
	})
}

// UpdateRunProgress records the worker's position. Progress writes against
// a terminal run are silently dropped (the terminal status is the last word
// for that run).
func (c *Conn) UpdateRunProgress(ctx context.Context, runID string, current, total int, step string) error {
	_, err := c.ExecContext(ctx, `
		UPDATE runs
		SET progress_current = ?, progress_total = ?, current_step = ?
		WHERE id = ? AND status = ?
	`, current, total, step, runID, string(glossary.RunRunning))
	if err != nil {
		return fmt.Errorf("update run progress: %w", err)
	}
	return nil
}

// GetRun reads one run row by id. Uses a pool connection, not the worker's
// pinned one, so status can be observed while a run is in flight.
func (s *Store) GetRun(ctx context.Context, runID string) (*glossary.Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, project_id, scope, status, started_at, finished_at,
		       progress_current, progress_total, current_step, error_message
		FROM runs WHERE id = ?
	`, runID)
	return scanRun(row)
}

// ActiveRun returns the project's running run, or ErrRunNotFound if the
// project is idle.
func (s *Store) ActiveRun(ctx context.Context, projectID string) (*glossary.Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, project_id, scope, status, started_at, finished_at,
		       progress_current, progress_total, current_step, error_message
		FROM runs WHERE project_id = ? AND status = ?
	`, projectID, string(glossary.RunRunning))
	return scanRun(row)
}

func scanRun(row *sql.Row) (*glossary.Run, error) {
	var (
		run        glossary.Run
		scope      string
		status     string
		startedAt  string
		finishedAt sql.NullString
	)
	err := row.Scan(
		&run.ID, &run.ProjectID, &scope, &status, &startedAt, &finishedAt,
		&run.ProgressCurrent, &run.ProgressTotal, &run.CurrentStep, &run.ErrorMessage,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read run: %w", err)
	}

	run.Scope = glossary.RunScope(scope)
	run.Status = glossary.RunStatus(status)
	run.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return nil, fmt.Errorf("read run: parse started_at: %w", err)
	}
	if finishedAt.Valid {
		t, err := time.Parse(time.RFC3339Nano, finishedAt.String)
		if err != nil {
			return nil, fmt.Errorf("read run: parse finished_at: %w", err)
		}
		run.FinishedAt = &t
	}
	return &run, nil
}
