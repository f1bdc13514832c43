package runner

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// queueHandler is a slog.Handler that renders records into queue entries.
// A run worker's logger is built on one of these, so everything a stage
// logs is observable by the run's external consumer.
type queueHandler struct {
	queue *LogQueue
	clk   *clock
	attrs []slog.Attr
}

func newQueueHandler(q *LogQueue, clk *clock) *queueHandler {
	return &queueHandler{queue: q, clk: clk}
}

// Enabled reports true for every level; the consumer decides what to show.
func (h *queueHandler) Enabled(context.Context, slog.Level) bool {
	return true
}

// Handle renders the record as "message key=value ..." and pushes it.
func (h *queueHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(r.Message)
	for _, a := range h.attrs {
		writeAttr(&b, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&b, a)
		return true
	})

	h.queue.Push(&Entry{
		Seq:     h.clk.Next(),
		Level:   r.Level,
		Message: b.String(),
	})
	return nil
}

func (h *queueHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	combined := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	combined = append(combined, h.attrs...)
	combined = append(combined, attrs...)
	return &queueHandler{queue: h.queue, clk: h.clk, attrs: combined}
}

// WithGroup is accepted but flattened; queue entries are plain strings.
func (h *queueHandler) WithGroup(string) slog.Handler {
	return h
}

func writeAttr(b *strings.Builder, a slog.Attr) {
	fmt.Fprintf(b, " %s=%v", a.Key, a.Value.Any())
}
