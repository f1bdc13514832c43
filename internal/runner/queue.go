package runner

import (
	"log/slog"
	"time"
)

// DefaultQueueCapacity bounds how many undelivered entries a run's queue
// holds. Delivery is best-effort: a slow consumer loses the oldest entries,
// never blocks the worker.
const DefaultQueueCapacity = 256

// Entry is one structured log or progress message produced by a run worker.
// Seq is strictly increasing within a run; entries are delivered in the
// order the worker produced them.
type Entry struct {
	Seq       int64
	Level     slog.Level
	Message   string
	Keepalive bool
}

// LogQueue is the bounded single-producer queue a run worker feeds and an
// external observer drains. A nil entry is the end-of-stream sentinel; the
// worker sends it exactly once, after the run's terminal status is written.
type LogQueue struct {
	ch chan *Entry
}

// NewLogQueue creates a queue with the given capacity (DefaultQueueCapacity
// if n <= 0).
func NewLogQueue(n int) *LogQueue {
	if n <= 0 {
		n = DefaultQueueCapacity
	}
	return &LogQueue{ch: make(chan *Entry, n)}
}

// Push offers an entry without blocking. When the queue is full the entry
// is dropped; log streaming is at-most-once per consumer.
func (q *LogQueue) Push(e *Entry) bool {
	select {
	case q.ch <- e:
		return true
	default:
		return false
	}
}

// End enqueues the nil end-of-stream sentinel. Unlike Push it never drops
// the sentinel: if the queue is full, the oldest undelivered entry is
// evicted to make room. Call exactly once, from the producer.
func (q *LogQueue) End() {
	for {
		select {
		case q.ch <- nil:
			return
		default:
		}
		// Full: evict one entry and retry. The single-producer contract
		// means no concurrent Push can starve this loop.
		select {
		case <-q.ch:
		default:
		}
	}
}

// Poll waits up to timeout for the next entry. On timeout it returns a
// synthetic keepalive entry so long-lived streaming consumers are never
// starved of output. Returns ok=false only at end-of-stream.
func (q *LogQueue) Poll(timeout time.Duration) (*Entry, bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case e := <-q.ch:
		if e == nil {
			return nil, false
		}
		return e, true
	case <-timer.C:
		return &Entry{Level: slog.LevelDebug, Message: "keepalive", Keepalive: true}, true
	}
}
