package glossary

import "time"

// RunStatus is the lifecycle state of a pipeline run.
// Transitions: running -> {completed, failed, cancelled}. Terminal states
// are write-once; the store rejects updates to a terminal row.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
	RunCancelled RunStatus = "cancelled"
)

// Terminal reports whether s is a terminal run status.
func (s RunStatus) Terminal() bool {
	return s == RunCompleted || s == RunFailed || s == RunCancelled
}

// RunScope selects which pipeline stages a run executes. Every scope runs
// its starting stage and all later stages in pipeline order.
type RunScope string

const (
	// ScopeFull runs extract, define, review, and refine.
	ScopeFull RunScope = "full"
	// ScopeDefine re-derives definitions for the stored glossary's terms,
	// then reviews and refines.
	ScopeDefine RunScope = "define"
	// ScopeReview reviews the stored glossary, then refines.
	ScopeReview RunScope = "review"
	// ScopeRefine refines the stored glossary using stored issues.
	ScopeRefine RunScope = "refine"
)

// ValidScope reports whether s names a supported run scope.
func ValidScope(s RunScope) bool {
	switch s {
	case ScopeFull, ScopeDefine, ScopeReview, ScopeRefine:
		return true
	default:
		return false
	}
}

// Run is one end-to-end (or partial-scope) pipeline execution for a project.
// At most one Run with status running may exist per project at any time;
// the store enforces this transactionally.
type Run struct {
	ID              string
	ProjectID       string
	Scope           RunScope
	Status          RunStatus
	StartedAt       time.Time
	FinishedAt      *time.Time
	ProgressCurrent int
	ProgressTotal   int
	CurrentStep     string
	ErrorMessage    string
}
