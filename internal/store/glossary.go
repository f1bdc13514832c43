package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/roach88/gloss/internal/glossary"
)

// PutTerm inserts or replaces one glossary term for a project. The refine
// stage rewrites definition and confidence in place, so conflicts update
// rather than ignore.
func (c *Conn) PutTerm(ctx context.Context, projectID string, term *glossary.Term) error {
	occJSON, err := glossary.MarshalOccurrences(term.Occurrences)
	if err != nil {
		return fmt.Errorf("put term: %w", err)
	}
	relJSON, err := glossary.MarshalRelated(term.RelatedTerms)
	if err != nil {
		return fmt.Errorf("put term: %w", err)
	}

	_, err = c.ExecContext(ctx, `
		INSERT INTO terms
		(project_id, name, definition, occurrences, related_terms, confidence)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(project_id, name) DO UPDATE SET
			definition = excluded.definition,
			occurrences = excluded.occurrences,
			related_terms = excluded.related_terms,
			confidence = excluded.confidence
	`,
		projectID,
		term.Name,
		term.Definition,
		string(occJSON),
		string(relJSON),
		term.Confidence,
	)
	if err != nil {
		return fmt.Errorf("put term: %w", err)
	}
	return nil
}

// AppendIssue inserts one review finding for a project.
func (c *Conn) AppendIssue(ctx context.Context, projectID string, issue glossary.GlossaryIssue) error {
	exclude := 0
	if issue.ShouldExclude {
		exclude = 1
	}
	_, err := c.ExecContext(ctx, `
		INSERT INTO issues
		(project_id, term_name, issue_type, description, should_exclude, exclusion_reason)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		projectID,
		issue.TermName,
		string(issue.Type),
		issue.Description,
		exclude,
		issue.ExclusionReason,
	)
	if err != nil {
		return fmt.Errorf("append issue: %w", err)
	}
	return nil
}

// LoadGlossary reads a project's stored terms and issues back into a
// working glossary. Uses a pool connection; safe to call outside a run.
func (s *Store) LoadGlossary(ctx context.Context, projectID string) (*glossary.Glossary, error) {
	g := glossary.NewGlossary()

	rows, err := s.db.QueryContext(ctx, `
		SELECT name, definition, occurrences, related_terms, confidence
		FROM terms WHERE project_id = ? ORDER BY name
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("load glossary: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			term    glossary.Term
			occJSON string
			relJSON string
		)
		if err := rows.Scan(&term.Name, &term.Definition, &occJSON, &relJSON, &term.Confidence); err != nil {
			return nil, fmt.Errorf("load glossary: scan term: %w", err)
		}
		term.Occurrences, err = glossary.UnmarshalOccurrences([]byte(occJSON))
		if err != nil {
			return nil, fmt.Errorf("load glossary: term %q: %w", term.Name, err)
		}
		term.RelatedTerms, err = glossary.UnmarshalRelated([]byte(relJSON))
		if err != nil {
			return nil, fmt.Errorf("load glossary: term %q: %w", term.Name, err)
		}
		g.Terms[term.Name] = &term
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load glossary: %w", err)
	}

	issues, err := s.LoadIssues(ctx, projectID)
	if err != nil {
		return nil, err
	}
	g.Issues = issues
	return g, nil
}

// LoadIssues reads a project's stored review findings in insertion order.
func (s *Store) LoadIssues(ctx context.Context, projectID string) ([]glossary.GlossaryIssue, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT term_name, issue_type, description, should_exclude, exclusion_reason
		FROM issues WHERE project_id = ? ORDER BY id
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("load issues: %w", err)
	}
	defer rows.Close()

	var issues []glossary.GlossaryIssue
	for rows.Next() {
		var (
			issue   glossary.GlossaryIssue
			typ     string
			exclude int
		)
		if err := rows.Scan(&issue.TermName, &typ, &issue.Description, &exclude, &issue.ExclusionReason); err != nil {
			return nil, fmt.Errorf("load issues: scan: %w", err)
		}
		issue.Type = glossary.IssueType(typ)
		issue.ShouldExclude = exclude != 0
		issues = append(issues, issue)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load issues: %w", err)
	}
	return issues, nil
}

// SaveGlossaryTerms persists every term in the glossary inside one
// transactional unit, in sorted name order for deterministic row order.
func (c *Conn) SaveGlossaryTerms(ctx context.Context, projectID string, g *glossary.Glossary) error {
	names := g.TermNames()
	sort.Strings(names)
	return c.WithTx(ctx, func(ctx context.Context) error {
		for _, name := range names {
			if err := c.PutTerm(ctx, projectID, g.Terms[name]); err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveIssues persists a review stage's findings inside one transactional unit.
func (c *Conn) SaveIssues(ctx context.Context, projectID string, issues []glossary.GlossaryIssue) error {
	return c.WithTx(ctx, func(ctx context.Context) error {
		for _, issue := range issues {
			if err := c.AppendIssue(ctx, projectID, issue); err != nil {
				return err
			}
		}
		return nil
	})
}
