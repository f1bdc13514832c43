package store

import (
	"context"
	"fmt"
)

// Table names a project-scoped table that a re-run stage may clear before
// writing fresh rows. The set is closed: table identifiers are validated
// against it before being formatted into any SQL, never taken from input.
type Table string

const (
	// TableTerms holds glossary terms (cleared when define re-runs).
	TableTerms Table = "terms"
	// TableIssues holds review findings (cleared when review re-runs).
	TableIssues Table = "issues"
)

// validTable reports whether t is one of the clearable tables. The runs
// table is deliberately absent: run history is never cleared by a stage.
func validTable(t Table) bool {
	switch t {
	case TableTerms, TableIssues:
		return true
	default:
		return false
	}
}

// ClearProjectRows deletes a project's rows from one of the clearable
// tables. Refuses identifiers outside the closed set.
func (c *Conn) ClearProjectRows(ctx context.Context, table Table, projectID string) error {
	if !validTable(table) {
		return fmt.Errorf("clear rows: table %q is not clearable", table)
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE project_id = ?", table)
	if _, err := c.ExecContext(ctx, query, projectID); err != nil {
		return fmt.Errorf("clear rows from %s: %w", table, err)
	}
	return nil
}
