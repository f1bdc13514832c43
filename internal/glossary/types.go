package glossary

import "strings"

// Document is one loaded source file. Content is immutable once loaded;
// the loader has already decoded it to UTF-8.
type Document struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// Lines splits the document content on newlines. The split is recomputed on
// each call; stages that scan repeatedly should hold the result.
func (d Document) Lines() []string {
	return strings.Split(d.Content, "\n")
}

// TermOccurrence records a single line where a term (or one of its synonym
// aliases) was found. Context is the matched line plus one neighboring line
// on each side, joined with newlines. Value type, no independent identity.
type TermOccurrence struct {
	DocumentPath string `json:"document_path"`
	LineNumber   int    `json:"line_number"` // 1-based
	Context      string `json:"context"`
}

// Term is one glossary entry. Created by the define stage, updated in place
// by the refine stage (definition and confidence only; occurrences are
// preserved across refinement).
type Term struct {
	Name         string           `json:"name"`
	Definition   string           `json:"definition"`
	Occurrences  []TermOccurrence `json:"occurrences"`
	RelatedTerms []string         `json:"related_terms,omitempty"`
	Confidence   float64          `json:"confidence"` // in [0,1]
}

// SynonymMember is one spelling belonging to a synonym group.
type SynonymMember struct {
	ID       int64  `yaml:"id" json:"id"`
	TermText string `yaml:"term" json:"term"`
}

// SynonymGroup collapses equivalent spellings onto a single primary term.
// Invariants: a term text belongs to at most one group, and the primary
// text appears among the group's own members. Non-primary members never
// receive an independent glossary entry.
type SynonymGroup struct {
	ID          int64           `yaml:"id" json:"id"`
	PrimaryTerm string          `yaml:"primary" json:"primary"`
	Members     []SynonymMember `yaml:"members" json:"members"`
}

// IssueType categorizes a review finding.
type IssueType string

const (
	IssueUnclear         IssueType = "unclear"
	IssueContradiction   IssueType = "contradiction"
	IssueMissingRelation IssueType = "missing_relation"
	IssueUnnecessary     IssueType = "unnecessary"
)

// ValidIssueType reports whether t is one of the allowed issue types.
// Review responses carrying anything else are dropped.
func ValidIssueType(t IssueType) bool {
	switch t {
	case IssueUnclear, IssueContradiction, IssueMissingRelation, IssueUnnecessary:
		return true
	default:
		return false
	}
}

// GlossaryIssue is one finding from the review stage, consumed once by the
// refine stage.
type GlossaryIssue struct {
	TermName        string    `json:"term_name"`
	Type            IssueType `json:"issue_type"`
	Description     string    `json:"description"`
	ShouldExclude   bool      `json:"should_exclude"`
	ExclusionReason string    `json:"exclusion_reason,omitempty"`
}

// MetadataResolvedIssues is the metadata key under which the refine stage
// records how many terms it successfully rewrote.
const MetadataResolvedIssues = "resolved_issues"

// Glossary is the working set threaded through the pipeline stages.
type Glossary struct {
	Terms    map[string]*Term `json:"terms"`
	Issues   []GlossaryIssue  `json:"issues,omitempty"`
	Metadata map[string]any   `json:"metadata,omitempty"`
}

// NewGlossary returns an empty glossary with initialized maps.
func NewGlossary() *Glossary {
	return &Glossary{
		Terms:    make(map[string]*Term),
		Metadata: make(map[string]any),
	}
}

// TermNames returns the glossary's term names in map iteration order.
// Callers needing deterministic order sort the result.
func (g *Glossary) TermNames() []string {
	names := make([]string, 0, len(g.Terms))
	for name := range g.Terms {
		names = append(names, name)
	}
	return names
}
