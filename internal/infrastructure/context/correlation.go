package context

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

// TraceIDKey is the context key for the request trace id.
const TraceIDKey contextKey = "trace_id"

// WithTraceID stores the trace id that follows a request through the
// middleend calls and the audit record it produces.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// GetTraceID returns the trace id or an empty string.
func GetTraceID(ctx context.Context) string {
	if id, ok := ctx.Value(TraceIDKey).(string); ok {
		return id
	}
	return ""
}

// EnsureTraceID returns ctx unchanged when it already carries a trace id,
// otherwise it attaches a new random one.
func EnsureTraceID(ctx context.Context) (context.Context, string) {
	if id := GetTraceID(ctx); id != "" {
		return ctx, id
	}
	id := uuid.NewString()
	return WithTraceID(ctx, id), id
}
