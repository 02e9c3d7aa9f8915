package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records dispatch metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordDispatch records one completed CallEvent.
	RecordDispatch(ctx context.Context, eventType string, invoked int, cancelled bool, duration time.Duration)

	// RecordInvocation records one handler invocation and whether it faulted.
	RecordInvocation(ctx context.Context, eventType, priority string, duration time.Duration, err error)

	// RecordSkip records a handler skipped because the event was cancelled.
	RecordSkip(ctx context.Context, eventType, priority string)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	dispatches      metric.Int64Counter
	dispatchLatency metric.Float64Histogram
	dispatchFanout  metric.Int64Histogram
	invocations     metric.Int64Counter
	handlerLatency  metric.Float64Histogram
	faults          metric.Int64Counter
	skips           metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics lazily initializes the shared OTel instruments.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("pluginevents")

	dispatches, err := meter.Int64Counter("pluginevents.dispatch.count",
		metric.WithDescription("Number of CallEvent dispatches"),
	)
	if err != nil {
		return nil, err
	}

	dispatchLatency, err := meter.Float64Histogram("pluginevents.dispatch.latency_ms",
		metric.WithDescription("Dispatch latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	dispatchFanout, err := meter.Int64Histogram("pluginevents.dispatch.handlers",
		metric.WithDescription("Handlers invoked per dispatch"),
		metric.WithExplicitBucketBoundaries(0, 1, 2, 4, 8, 16, 32, 64, 128),
	)
	if err != nil {
		return nil, err
	}

	invocations, err := meter.Int64Counter("pluginevents.handler.invocations",
		metric.WithDescription("Number of handler invocations"),
	)
	if err != nil {
		return nil, err
	}

	handlerLatency, err := meter.Float64Histogram("pluginevents.handler.latency_ms",
		metric.WithDescription("Handler latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	faults, err := meter.Int64Counter("pluginevents.handler.faults",
		metric.WithDescription("Number of handler invocations that returned an error or panicked"),
	)
	if err != nil {
		return nil, err
	}

	skips, err := meter.Int64Counter("pluginevents.handler.skips",
		metric.WithDescription("Number of handlers skipped because the event was cancelled"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		dispatches:      dispatches,
		dispatchLatency: dispatchLatency,
		dispatchFanout:  dispatchFanout,
		invocations:     invocations,
		handlerLatency:  handlerLatency,
		faults:          faults,
		skips:           skips,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordDispatch records a dispatch.
func (m *otelMetrics) RecordDispatch(ctx context.Context, eventType string, invoked int, cancelled bool, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("event_type", eventType),
		attribute.Bool("cancelled", cancelled),
	)
	m.dispatches.Add(ctx, 1, attrs)
	m.dispatchLatency.Record(ctx, float64(duration.Microseconds())/1000, attrs)
	m.dispatchFanout.Record(ctx, int64(invoked), attrs)
}

// RecordInvocation records a handler invocation.
func (m *otelMetrics) RecordInvocation(ctx context.Context, eventType, priority string, duration time.Duration, err error) {
	attrs := metric.WithAttributes(
		attribute.String("event_type", eventType),
		attribute.String("priority", priority),
	)
	m.invocations.Add(ctx, 1, attrs)
	m.handlerLatency.Record(ctx, float64(duration.Microseconds())/1000, attrs)
	if err != nil {
		m.faults.Add(ctx, 1, attrs)
	}
}

// RecordSkip records a skipped handler.
func (m *otelMetrics) RecordSkip(ctx context.Context, eventType, priority string) {
	m.skips.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event_type", eventType),
		attribute.String("priority", priority),
	))
}
