package pluginevents

import (
	"context"
	"log/slog"
	"sync"
)

// Test event types used across tests.

// joinEvent is not cancellable.
type joinEvent struct {
	Base
	Player string
}

// chatEvent is cancellable through its pointer type.
type chatEvent struct {
	Base
	CancelState
	Player  string
	Message string
}

// breakEvent is cancellable and used where a second event type is needed.
type breakEvent struct {
	Base
	CancelState
	X, Y, Z int
}

// logEntry is one captured log record.
type logEntry struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// captureHandler records every log record. Safe for concurrent use.
type captureHandler struct {
	mu      *sync.Mutex
	entries *[]logEntry
	attrs   []slog.Attr
}

func newCapture() (*slog.Logger, *captureHandler) {
	h := &captureHandler{mu: &sync.Mutex{}, entries: &[]logEntry{}}
	return slog.New(h), h
}

func (h *captureHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *captureHandler) Handle(_ context.Context, r slog.Record) error {
	e := logEntry{Level: r.Level, Message: r.Message, Attrs: map[string]any{}}
	for _, a := range h.attrs {
		e.Attrs[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		e.Attrs[a.Key] = a.Value.Any()
		return true
	})
	h.mu.Lock()
	*h.entries = append(*h.entries, e)
	h.mu.Unlock()
	return nil
}

func (h *captureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &captureHandler{mu: h.mu, entries: h.entries, attrs: append(append([]slog.Attr{}, h.attrs...), attrs...)}
}

func (h *captureHandler) WithGroup(string) slog.Handler { return h }

func (h *captureHandler) all() []logEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]logEntry(nil), *h.entries...)
}

// at returns the records logged at level with the given message.
func (h *captureHandler) at(level slog.Level, msg string) []logEntry {
	var out []logEntry
	for _, e := range h.all() {
		if e.Level == level && e.Message == msg {
			out = append(out, e)
		}
	}
	return out
}

func (h *captureHandler) count(level slog.Level) int {
	n := 0
	for _, e := range h.all() {
		if e.Level == level {
			n++
		}
	}
	return n
}

// callTrace records handler invocation order. Safe for concurrent use.
type callTrace struct {
	mu    sync.Mutex
	calls []string
}

func (t *callTrace) add(name string) {
	t.mu.Lock()
	t.calls = append(t.calls, name)
	t.mu.Unlock()
}

func (t *callTrace) list() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.calls...)
}
