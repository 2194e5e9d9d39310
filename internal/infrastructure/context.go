package infrastructure

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

type contextKey string

// TraceIDContextKey carries the run's trace ID through the context.
const TraceIDContextKey contextKey = "trace_id"

// NewTraceID returns a random UUID identifying one processor run.
func NewTraceID() string {
	return uuid.NewString()
}

// WithTraceID stores traceID on ctx.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDContextKey, traceID)
}

// GetTraceID returns the trace ID on ctx, or "" when there is none.
func GetTraceID(ctx context.Context) string {
	id, _ := ctx.Value(TraceIDContextKey).(string)
	return id
}

// EnsureTraceID returns ctx unchanged when it already carries a trace ID.
func EnsureTraceID(ctx context.Context) context.Context {
	if GetTraceID(ctx) != "" {
		return ctx
	}
	return WithTraceID(ctx, NewTraceID())
}

// LoggerWithContext binds the context's trace ID to the global logger for
// components that log without a context.
func LoggerWithContext(ctx context.Context) *slog.Logger {
	if id := GetTraceID(ctx); id != "" {
		return GetLogger().With(slog.String("trace_id", id))
	}
	return GetLogger()
}

// WithComponent tags every record of logger with the pipeline component.
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	return logger.With(slog.String("component", component))
}
