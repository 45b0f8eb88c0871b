package opcheck

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// Logger is the logging surface the validator and its callers write to.
// Implementations must be safe for concurrent use.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)

	// With returns a logger that stamps args on every record.
	With(args ...any) Logger
}

// NopLogger discards every record. It is the default logger.
type NopLogger struct{}

var _ Logger = NopLogger{}

func (NopLogger) Debug(string, ...any) {}
func (NopLogger) Info(string, ...any)  {}
func (NopLogger) Warn(string, ...any)  {}
func (NopLogger) Error(string, ...any) {}

// With returns the logger unchanged.
func (l NopLogger) With(...any) Logger { return l }

// SlogAdapter bridges Logger onto a *slog.Logger. A zero adapter logs
// through slog.Default.
type SlogAdapter struct {
	L *slog.Logger
}

var _ Logger = SlogAdapter{}

func (a SlogAdapter) logger() *slog.Logger {
	if a.L != nil {
		return a.L
	}
	return slog.Default()
}

func (a SlogAdapter) Debug(msg string, args ...any) { a.logger().Debug(msg, args...) }
func (a SlogAdapter) Info(msg string, args ...any)  { a.logger().Info(msg, args...) }
func (a SlogAdapter) Warn(msg string, args ...any)  { a.logger().Warn(msg, args...) }
func (a SlogAdapter) Error(msg string, args ...any) { a.logger().Error(msg, args...) }

// With returns an adapter whose records carry args.
func (a SlogAdapter) With(args ...any) Logger {
	return SlogAdapter{L: a.logger().With(args...)}
}

// ContextLogger derives per-request loggers that carry the active
// OpenTelemetry trace and span IDs, so validation outcomes correlate
// with traces.
type ContextLogger struct {
	Base Logger
}

// For returns the base logger stamped with the trace_id and span_id
// recorded on ctx, or the base logger unchanged when ctx carries no
// valid span.
func (c ContextLogger) For(ctx context.Context) Logger {
	base := c.Base
	if base == nil {
		base = NopLogger{}
	}
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return base
	}
	return base.With(
		"trace_id", sc.TraceID().String(),
		"span_id", sc.SpanID().String(),
	)
}
