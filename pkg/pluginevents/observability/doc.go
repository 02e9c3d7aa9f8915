// Package observability provides logging, metrics, and tracing for
// pluginevents dispatch.
//
// Features:
//   - Structured diagnostics via slog (Go stdlib)
//   - Dispatch and handler metrics via OpenTelemetry
//   - Dispatch and handler spans via OpenTelemetry
//
// Metrics and tracing are opt-in and have no-op implementations when disabled.
package observability
