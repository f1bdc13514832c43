package runner

import "sync/atomic"

// clock stamps a run's queue entries with a strictly increasing sequence
// number, making the per-run ordering guarantee observable to consumers.
// Safe for concurrent use, though a run has a single producer.
type clock struct {
	seq atomic.Int64
}

// Next returns the next sequence number and increments the clock.
func (c *clock) Next() int64 {
	return c.seq.Add(1)
}
