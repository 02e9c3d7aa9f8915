package observability

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// NewLogger builds a slog logger writing to w at the given level.
// Format is "text" (default) or "json".
func NewLogger(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// ParseLevel converts a level name to a slog.Level.
// Accepts debug, info, warn, warning, error (case-insensitive) and the
// java.util.logging names fine, config and severe used by older hosts.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "config", "fine":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error", "severe":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// LogBindingRejected logs a handler binding that failed validation.
func LogBindingRejected(logger *slog.Logger, listener, method string, err error, params []string) {
	if logger == nil {
		return
	}
	logger.Warn("cannot use method as an event handler",
		slog.String("listener", listener),
		slog.String("method", method),
		slog.String("error", err.Error()),
		slog.Any("params", params),
	)
}

// LogListenerRegistered logs the outcome of registering a listener.
func LogListenerRegistered(logger *slog.Logger, listener string, registered, rejected int) {
	if logger == nil {
		return
	}
	logger.Debug("listener registered",
		slog.String("listener", listener),
		slog.Int("handlers", registered),
		slog.Int("rejected", rejected),
	)
}

// LogDuplicateHandler logs a handler that was already registered in its bucket.
func LogDuplicateHandler(logger *slog.Logger, listener, method, eventType string) {
	if logger == nil {
		return
	}
	logger.Debug("handler already registered",
		slog.String("listener", listener),
		slog.String("method", method),
		slog.String("event_type", eventType),
	)
}

// LogHandlerSkipped logs a handler skipped because the event is cancelled.
func LogHandlerSkipped(logger *slog.Logger, eventType, listener, method string) {
	if logger == nil {
		return
	}
	logger.Debug("skipping handler as event is cancelled",
		slog.String("event_type", eventType),
		slog.String("listener", listener),
		slog.String("method", method),
	)
}

// LogHandlerFault logs a handler that returned an error or panicked.
// The panic stack, when present, is logged separately at debug level.
func LogHandlerFault(logger *slog.Logger, eventType, listener, method, priority string, err error, stack []byte) {
	if logger == nil {
		return
	}
	logger.Warn("unable to invoke event handler",
		slog.String("event_type", eventType),
		slog.String("listener", listener),
		slog.String("method", method),
		slog.String("priority", priority),
		slog.String("error", err.Error()),
	)
	if len(stack) > 0 {
		logger.Debug("event handler panic stack",
			slog.String("method", method),
			slog.String("stack", string(stack)),
		)
	}
}

// LogMissingLogger reports a handler that has no bound logger.
func LogMissingLogger(logger *slog.Logger, eventType, listener, method string) {
	if logger == nil {
		return
	}
	logger.Warn("no logger bound to event handler, default logger being used",
		slog.String("event_type", eventType),
		slog.String("listener", listener),
		slog.String("method", method),
	)
}

// LogUnregisteredEvent logs an event dispatched with no registered handlers.
func LogUnregisteredEvent(logger *slog.Logger, eventType string) {
	if logger == nil {
		return
	}
	logger.Warn("event called but not registered",
		slog.String("event_type", eventType),
	)
}

// LogFaultJournalError logs a failed write to the fault journal (non-fatal).
func LogFaultJournalError(logger *slog.Logger, eventType, method string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("fault journal write failed",
		slog.String("event_type", eventType),
		slog.String("method", method),
		slog.String("error", err.Error()),
	)
}
