package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testHandler captures log records as JSON lines.
type testHandler struct {
	buf   *bytes.Buffer
	level slog.Level
	attrs []slog.Attr
}

func newTestHandler() *testHandler {
	return &testHandler{buf: &bytes.Buffer{}, level: slog.LevelDebug}
}

func (h *testHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *testHandler) Handle(_ context.Context, r slog.Record) error {
	data := map[string]any{
		"level": r.Level.String(),
		"msg":   r.Message,
	}
	for _, attr := range h.attrs {
		data[attr.Key] = attr.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		data[a.Key] = a.Value.Any()
		return true
	})
	return json.NewEncoder(h.buf).Encode(data)
}

func (h *testHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &testHandler{buf: h.buf, level: h.level, attrs: merged}
}

func (h *testHandler) WithGroup(string) slog.Handler { return h }

func (h *testHandler) records() []map[string]any {
	var out []map[string]any
	for _, line := range bytes.Split(h.buf.Bytes(), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal(line, &m); err == nil {
			out = append(out, m)
		}
	}
	return out
}

func (h *testHandler) last() map[string]any {
	recs := h.records()
	if len(recs) == 0 {
		return nil
	}
	return recs[len(recs)-1]
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"CONFIG", slog.LevelDebug, false},
		{"fine", slog.LevelDebug, false},
		{"", slog.LevelInfo, false},
		{"info", slog.LevelInfo, false},
		{"Warning", slog.LevelWarn, false},
		{"warn", slog.LevelWarn, false},
		{"severe", slog.LevelError, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewLogger(t *testing.T) {
	t.Run("json format", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf, slog.LevelInfo, "json")
		logger.Debug("hidden")
		logger.Info("shown", slog.String("k", "v"))

		var rec map[string]any
		require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec))
		assert.Equal(t, "shown", rec["msg"])
		assert.Equal(t, "v", rec["k"])
	})

	t.Run("text format", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf, slog.LevelDebug, "text")
		logger.Debug("hello")
		assert.Contains(t, buf.String(), "msg=hello")
	})
}

func TestLogBindingRejected(t *testing.T) {
	h := newTestHandler()
	LogBindingRejected(slog.New(h), "*main.Listener", "OnJoin", errors.New("too many parameters"), []string{"int", "string"})

	rec := h.last()
	require.NotNil(t, rec)
	assert.Equal(t, "WARN", rec["level"])
	assert.Equal(t, "*main.Listener", rec["listener"])
	assert.Equal(t, "OnJoin", rec["method"])
	assert.Equal(t, "too many parameters", rec["error"])
	assert.Equal(t, []any{"int", "string"}, rec["params"])
}

func TestLogHandlerSkipped(t *testing.T) {
	h := newTestHandler()
	LogHandlerSkipped(slog.New(h), "*main.Chat", "*main.Listener", "OnChat")

	rec := h.last()
	require.NotNil(t, rec)
	assert.Equal(t, "DEBUG", rec["level"])
	assert.Equal(t, "*main.Chat", rec["event_type"])
	assert.Equal(t, "OnChat", rec["method"])
}

func TestLogHandlerFault(t *testing.T) {
	t.Run("error only", func(t *testing.T) {
		h := newTestHandler()
		LogHandlerFault(slog.New(h), "*main.Chat", "L", "OnChat", "HIGH", errors.New("boom"), nil)

		recs := h.records()
		require.Len(t, recs, 1)
		assert.Equal(t, "WARN", recs[0]["level"])
		assert.Equal(t, "boom", recs[0]["error"])
		assert.Equal(t, "HIGH", recs[0]["priority"])
	})

	t.Run("with stack", func(t *testing.T) {
		h := newTestHandler()
		LogHandlerFault(slog.New(h), "*main.Chat", "L", "OnChat", "LOW", errors.New("panic"), []byte("goroutine 1"))

		recs := h.records()
		require.Len(t, recs, 2)
		assert.Equal(t, "DEBUG", recs[1]["level"])
		assert.Equal(t, "goroutine 1", recs[1]["stack"])
	})
}

func TestLogMissingLoggerAndUnregistered(t *testing.T) {
	h := newTestHandler()
	logger := slog.New(h)

	LogMissingLogger(logger, "*main.Chat", "L", "OnChat")
	LogUnregisteredEvent(logger, "*main.Quit")
	LogFaultJournalError(logger, "*main.Chat", "OnChat", errors.New("disk full"))

	recs := h.records()
	require.Len(t, recs, 3)
	for _, rec := range recs {
		assert.Equal(t, "WARN", rec["level"])
	}
	assert.Equal(t, "*main.Quit", recs[1]["event_type"])
	assert.Equal(t, "disk full", recs[2]["error"])
}

func TestLogHelpersNilLogger(t *testing.T) {
	err := errors.New("err")
	assert.NotPanics(t, func() {
		LogBindingRejected(nil, "l", "m", err, nil)
		LogListenerRegistered(nil, "l", 1, 0)
		LogDuplicateHandler(nil, "l", "m", "e")
		LogHandlerSkipped(nil, "e", "l", "m")
		LogHandlerFault(nil, "e", "l", "m", "p", err, []byte("s"))
		LogMissingLogger(nil, "e", "l", "m")
		LogUnregisteredEvent(nil, "e")
		LogFaultJournalError(nil, "e", "m", err)
	})
}
