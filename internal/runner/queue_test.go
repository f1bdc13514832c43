package runner

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogQueue_DeliversInOrder(t *testing.T) {
	q := NewLogQueue(8)
	clk := &clock{}

	for _, msg := range []string{"first", "second", "third"} {
		require.True(t, q.Push(&Entry{Seq: clk.Next(), Message: msg}))
	}
	q.End()

	var got []string
	var lastSeq int64
	for {
		e, ok := q.Poll(time.Second)
		if !ok {
			break
		}
		require.False(t, e.Keepalive)
		assert.Greater(t, e.Seq, lastSeq)
		lastSeq = e.Seq
		got = append(got, e.Message)
	}
	assert.Equal(t, []string{"first", "second", "third"}, got)
}

func TestLogQueue_PollTimeoutYieldsKeepalive(t *testing.T) {
	q := NewLogQueue(1)

	e, ok := q.Poll(10 * time.Millisecond)
	require.True(t, ok)
	assert.True(t, e.Keepalive)
	assert.Equal(t, slog.LevelDebug, e.Level)
}

func TestLogQueue_PushDropsWhenFull(t *testing.T) {
	q := NewLogQueue(2)

	assert.True(t, q.Push(&Entry{Message: "a"}))
	assert.True(t, q.Push(&Entry{Message: "b"}))
	assert.False(t, q.Push(&Entry{Message: "dropped"}))

	q.End()

	e, ok := q.Poll(time.Second)
	require.True(t, ok)
	assert.Equal(t, "a", e.Message)
}

func TestLogQueue_EndEvictsOldestForSentinel(t *testing.T) {
	q := NewLogQueue(2)
	q.Push(&Entry{Message: "a"})
	q.Push(&Entry{Message: "b"})

	// Queue is full; the sentinel must still land.
	q.End()

	e, ok := q.Poll(time.Second)
	require.True(t, ok)
	assert.Equal(t, "b", e.Message)

	_, ok = q.Poll(time.Second)
	assert.False(t, ok)
}

func TestLogQueue_ZeroCapacityUsesDefault(t *testing.T) {
	q := NewLogQueue(0)
	assert.Equal(t, DefaultQueueCapacity, cap(q.ch))
}

func TestClock_StrictlyIncreasing(t *testing.T) {
	clk := &clock{}
	prev := clk.Next()
	for i := 0; i < 100; i++ {
		next := clk.Next()
		require.Greater(t, next, prev)
		prev = next
	}
}

func TestCancelFlag_OneWay(t *testing.T) {
	var f cancelFlag
	assert.False(t, f.Cancelled())
	f.Set()
	assert.True(t, f.Cancelled())
	f.Set()
	assert.True(t, f.Cancelled())
}
