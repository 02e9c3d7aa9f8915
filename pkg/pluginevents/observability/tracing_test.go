package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// setupTracingTest installs an in-memory span exporter for the test.
func setupTracingTest(t *testing.T) *tracetest.InMemoryExporter {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	tracer = otel.Tracer("pluginevents")

	t.Cleanup(func() {
		otel.SetTracerProvider(original)
		tracer = otel.Tracer("pluginevents")
		if err := tp.Shutdown(context.Background()); err != nil {
			t.Logf("shutting down tracer provider: %v", err)
		}
	})
	return exporter
}

func attrValue(attrs []attribute.KeyValue, key string) (string, bool) {
	for _, kv := range attrs {
		if string(kv.Key) == key {
			return kv.Value.Emit(), true
		}
	}
	return "", false
}

func TestDispatchAndHandlerSpans(t *testing.T) {
	exporter := setupTracingTest(t)
	sm := NewSpanManager()

	ctx, dispatch := sm.StartDispatchSpan(context.Background(), "*main.Chat")
	_, handler := sm.StartHandlerSpan(ctx, "*main.Listener", "OnChat", "HIGH")
	sm.EndSpanWithError(handler, errors.New("boom"))
	sm.EndSpanWithError(dispatch, nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)

	h, d := spans[0], spans[1]
	assert.Equal(t, "pluginevents.handler.OnChat", h.Name)
	assert.Equal(t, codes.Error, h.Status.Code)
	assert.Equal(t, "boom", h.Status.Description)
	assert.Equal(t, d.SpanContext.SpanID(), h.Parent.SpanID())

	listener, ok := attrValue(h.Attributes, "handler.listener")
	require.True(t, ok)
	assert.Equal(t, "*main.Listener", listener)

	assert.Equal(t, "pluginevents.dispatch", d.Name)
	assert.Equal(t, codes.Ok, d.Status.Code)
	eventType, ok := attrValue(d.Attributes, "event.type")
	require.True(t, ok)
	assert.Equal(t, "*main.Chat", eventType)
}

func TestAddSpanEvent(t *testing.T) {
	exporter := setupTracingTest(t)
	sm := NewSpanManager()

	ctx, span := sm.StartDispatchSpan(context.Background(), "*main.Chat")
	sm.AddSpanEvent(ctx, "handler.skipped", attribute.String("method", "OnChat"))
	sm.EndSpanWithError(span, nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	require.Len(t, spans[0].Events, 1)
	assert.Equal(t, "handler.skipped", spans[0].Events[0].Name)
}

func TestEndSpanWithErrorNil(t *testing.T) {
	assert.NotPanics(t, func() {
		NewSpanManager().EndSpanWithError(nil, errors.New("x"))
	})
}

func TestAddSpanEventWithoutSpan(t *testing.T) {
	assert.NotPanics(t, func() {
		NewSpanManager().AddSpanEvent(context.Background(), "orphan")
	})
}
