package pipeline

// Canceller reports whether cancellation has been requested for the current
// run. Stages poll it at their boundaries (between review batches, before
// starting work); they never interrupt an in-flight LM call.
type Canceller interface {
	Cancelled() bool
}

// ProgressFunc receives stage progress: current item, total items, and the
// step label. Stages call it best-effort; it must not block for long.
type ProgressFunc func(current, total int, step string)

// neverCancelled is the zero-value Canceller used when a stage runs outside
// a managed run.
type neverCancelled struct{}

func (neverCancelled) Cancelled() bool { return false }

// noCancel is a Canceller that always reports false.
var noCancel Canceller = neverCancelled{}

// orNoCancel substitutes the no-op Canceller for nil.
func orNoCancel(c Canceller) Canceller {
	if c == nil {
		return noCancel
	}
	return c
}

// orNoProgress substitutes a no-op callback for nil.
func orNoProgress(p ProgressFunc) ProgressFunc {
	if p == nil {
		return func(int, int, string) {}
	}
	return p
}

// maxPromptContexts caps how many occurrence contexts a prompt shows the
// model. Further occurrences stay on the term; the cap only bounds prompt
// size.
const maxPromptContexts = 5
