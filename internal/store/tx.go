package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Conn pins a single SQLite connection so that nested transactional units
// compose through savepoints. A run worker acquires one Conn at start and
// owns it exclusively for the run's duration; Conn performs no internal
// locking.
type Conn struct {
	conn  *sql.Conn
	depth int
}

// Acquire checks a dedicated connection out of the pool.
// The caller must Close it when done.
func (s *Store) Acquire(ctx context.Context) (*Conn, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	return &Conn{conn: conn}, nil
}

// Close returns the connection to the pool.
func (c *Conn) Close() error {
	return c.conn.Close()
}

// Depth returns the current transaction nesting depth. Zero means no
// transaction is open on this connection.
func (c *Conn) Depth() int {
	return c.depth
}

// ExecContext executes a statement on the pinned connection, inside the
// current transaction if one is open.
func (c *Conn) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return c.conn.ExecContext(ctx, query, args...)
}

// QueryContext executes a query on the pinned connection.
func (c *Conn) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return c.conn.QueryContext(ctx, query, args...)
}

// QueryRowContext executes a single-row query on the pinned connection.
func (c *Conn) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return c.conn.QueryRowContext(ctx, query, args...)
}

// WithTx executes fn inside a transactional unit on this connection and
// commits on success, rolls back on error, and returns fn's error unchanged.
//
// At depth zero it opens a real transaction (BEGIN IMMEDIATE, so the write
// lock is taken up front and concurrent writers serialize). When called
// while a transaction is already open on the same connection it uses a
// named savepoint instead, so nested calls compose: an inner failure undoes
// only the inner unit's writes, while an outer rollback undoes everything,
// including released inner savepoints.
func (c *Conn) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	outer := c.depth
	if outer == 0 {
		if _, err := c.conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
	} else {
		if _, err := c.conn.ExecContext(ctx, "SAVEPOINT "+savepointName(outer)); err != nil {
			return fmt.Errorf("create savepoint: %w", err)
		}
	}

	c.depth++
	err := fn(ctx)
	c.depth--

	if err != nil {
		if rbErr := c.rollback(ctx, outer); rbErr != nil {
			// Keep the body's error unwrappable; the rollback failure is
			// diagnostic only.
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if outer == 0 {
		if _, err := c.conn.ExecContext(ctx, "COMMIT"); err != nil {
			return fmt.Errorf("commit transaction: %w", err)
		}
		return nil
	}
	if _, err := c.conn.ExecContext(ctx, "RELEASE "+savepointName(outer)); err != nil {
		return fmt.Errorf("release savepoint: %w", err)
	}
	return nil
}

func (c *Conn) rollback(ctx context.Context, outer int) error {
	if outer == 0 {
		if _, err := c.conn.ExecContext(ctx, "ROLLBACK"); err != nil {
			return fmt.Errorf("rollback transaction: %w", err)
		}
		return nil
	}
	sp := savepointName(outer)
	if _, err := c.conn.ExecContext(ctx, "ROLLBACK TO "+sp); err != nil {
		return fmt.Errorf("rollback to savepoint: %w", err)
	}
	// ROLLBACK TO leaves the savepoint on the stack; release it so the
	// depth counter and SQLite's savepoint stack stay in step.
	if _, err := c.conn.ExecContext(ctx, "RELEASE "+sp); err != nil {
		return fmt.Errorf("release savepoint after rollback: %w", err)
	}
	return nil
}

// savepointName derives a stable identifier from nesting depth. Names are
// generated, never caller-supplied, so they are safe to splice into SQL.
func savepointName(depth int) string {
	return fmt.Sprintf("sp_%d", depth)
}
