package pluginevents

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/randalmurphal/pluginevents/pkg/pluginevents/faultlog"
	"github.com/randalmurphal/pluginevents/pkg/pluginevents/observability"
)

// CallEvent dispatches event to the handlers registered for its dynamic type
// and reports whether the event was cancelled before the Monitor bucket.
//
// Handlers run on the calling goroutine in ascending priority. The cancel
// flag is read before every handler: while it is set, handlers bound with
// IgnoreCancelled are skipped, except in the Monitor bucket. Handler errors
// and panics are logged and do not stop dispatch. Events that are not
// Cancellable always report false.
func (e *Events) CallEvent(event Event) bool {
	return e.CallEventContext(context.Background(), event)
}

// CallEventContext is CallEvent with a context for trace and metric
// parentage. The context does not abort dispatch.
func (e *Events) CallEventContext(ctx context.Context, event Event) bool {
	if event == nil {
		e.unregisteredEvent("<nil>")
		return false
	}

	eventType := TypeOf(event)
	table, ok := e.tables.Get(eventType)
	if !ok {
		e.unregisteredEvent(eventType.String())
		return false
	}

	eventName := eventType.String()
	start := time.Now()
	ctx, span := e.spans.StartDispatchSpan(ctx, eventName)

	cancellable, _ := event.(Cancellable)
	buckets := table.snapshot()
	cancelled := false
	invoked := 0

	for p := Lowest; p <= Monitor; p++ {
		forceHandle := p >= Monitor
		if forceHandle {
			cancelled = isCancelled(cancellable)
		}

		for _, h := range buckets[p] {
			if !forceHandle && h.ignoreCancelled && isCancelled(cancellable) {
				e.skip(ctx, eventName, h)
				continue
			}
			e.invoke(ctx, eventName, h, event)
			invoked++
		}
	}

	e.metrics.RecordDispatch(ctx, eventName, invoked, cancelled, time.Since(start))
	e.spans.EndSpanWithError(span, nil)
	return cancelled
}

func (e *Events) unregisteredEvent(eventName string) {
	if e.unregistered == UnregisteredWarn {
		observability.LogUnregisteredEvent(e.defaultLogger(), eventName)
	}
}

func (e *Events) skip(ctx context.Context, eventName string, h *handler) {
	observability.LogHandlerSkipped(e.handlerLogger(eventName, h), eventName, h.listener, h.method)
	e.metrics.RecordSkip(ctx, eventName, h.priority.String())
	e.spans.AddSpanEvent(ctx, "handler.skipped",
		attribute.String("handler.listener", h.listener),
		attribute.String("handler.method", h.method),
	)
}

// invoke runs one handler inside the failure boundary.
func (e *Events) invoke(ctx context.Context, eventName string, h *handler, event Event) {
	priority := h.priority.String()
	hctx, span := e.spans.StartHandlerSpan(ctx, h.listener, h.method, priority)
	start := time.Now()

	err := h.call(event)

	e.spans.EndSpanWithError(span, err)
	e.metrics.RecordInvocation(hctx, eventName, priority, time.Since(start), err)
	if err == nil {
		return
	}

	logger := e.handlerLogger(eventName, h)

	var herr *HandlerError
	var stack []byte
	if errors.As(err, &herr) {
		stack = herr.Stack
	}
	observability.LogHandlerFault(logger, eventName, h.listener, h.method, priority, err, stack)

	if e.faults == nil {
		return
	}
	rec := faultlog.Record{
		EventType:  eventName,
		Listener:   h.listener,
		Method:     h.method,
		Priority:   priority,
		Message:    err.Error(),
		Panicked:   herr != nil && herr.Panicked,
		Stack:      string(stack),
		OccurredAt: time.Now(),
	}
	if jerr := e.faults.Record(hctx, rec); jerr != nil {
		observability.LogFaultJournalError(logger, eventName, h.method, jerr)
	}
}

// handlerLogger returns the handler's bound logger, or the default logger
// after reporting the missing binding.
func (e *Events) handlerLogger(eventName string, h *handler) *slog.Logger {
	if h.logger != nil {
		return h.logger
	}
	logger := e.defaultLogger()
	observability.LogMissingLogger(logger, eventName, h.listener, h.method)
	return logger
}

// isCancelled reads the cancel flag, treating a panicking IsCancelled as
// not cancelled.
func isCancelled(c Cancellable) (cancelled bool) {
	if c == nil {
		return false
	}
	defer func() {
		if recover() != nil {
			cancelled = false
		}
	}()
	return c.IsCancelled()
}
