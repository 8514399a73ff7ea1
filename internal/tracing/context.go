package tracing

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ContextKey is the type for context keys
type ContextKey string

const (
	// TraceIDKey is the context key for trace ID
	TraceIDKey ContextKey = "trace_id"
	// SessionIDKey is the context key for the conversation session ID
	SessionIDKey ContextKey = "session_id"
	// DecisionIDKey is the context key for the escalation decision ID
	DecisionIDKey ContextKey = "decision_id"
)

// NewTraceID generates a new trace ID
func NewTraceID() string {
	return uuid.New().String()
}

// WithTraceID adds a trace ID to the context
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// WithSessionID adds a session ID to the context
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, SessionIDKey, sessionID)
}

// WithDecisionID adds a decision ID to the context
func WithDecisionID(ctx context.Context, decisionID string) context.Context {
	return context.WithValue(ctx, DecisionIDKey, decisionID)
}

// GetTraceID retrieves the trace ID from the context
func GetTraceID(ctx context.Context) string {
	if traceID, ok := ctx.Value(TraceIDKey).(string); ok {
		return traceID
	}
	return ""
}

// GetSessionID retrieves the session ID from the context
func GetSessionID(ctx context.Context) string {
	if sessionID, ok := ctx.Value(SessionIDKey).(string); ok {
		return sessionID
	}
	return ""
}

// GetDecisionID retrieves the decision ID from the context
func GetDecisionID(ctx context.Context) string {
	if decisionID, ok := ctx.Value(DecisionIDKey).(string); ok {
		return decisionID
	}
	return ""
}

// LoggerFromContext returns a logger enriched with tracing fields from the context
func LoggerFromContext(ctx context.Context, base zerolog.Logger) zerolog.Logger {
	logCtx := base.With()
	if traceID := GetTraceID(ctx); traceID != "" {
		logCtx = logCtx.Str("trace_id", traceID)
	}
	if sessionID := GetSessionID(ctx); sessionID != "" {
		logCtx = logCtx.Str("session_id", sessionID)
	}
	return logCtx.Logger()
}
