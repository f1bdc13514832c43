package runner

import "sync/atomic"

// cancelFlag is the one-way cooperative cancellation signal for a run.
// Once set it cannot be unset. Stages poll it at their boundaries; a run
// mid-LM-call observes cancellation only at the next boundary, so cancel
// latency is bounded by one call's round trip.
type cancelFlag struct {
	set atomic.Bool
}

// Set requests cancellation. Idempotent.
func (f *cancelFlag) Set() {
	f.set.Store(true)
}

// Cancelled reports whether cancellation has been requested.
func (f *cancelFlag) Cancelled() bool {
	return f.set.Load()
}
