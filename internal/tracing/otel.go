package tracing

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "eskala"

var (
	initOnce sync.Once
	initErr  error

	providerMu sync.RWMutex
	provider   *sdktrace.TracerProvider
)

// Init sets up the process-wide tracer provider under the given service
// name. Repeat calls are no-ops and return the first outcome.
func Init(serviceName string) error {
	initOnce.Do(func() {
		res, err := resource.New(context.Background(),
			resource.WithAttributes(semconv.ServiceName(serviceName)),
		)
		if err != nil {
			initErr = err
			return
		}

		tp := sdktrace.NewTracerProvider(
			sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(1))),
			sdktrace.WithResource(res),
		)

		providerMu.Lock()
		provider = tp
		providerMu.Unlock()

		otel.SetTracerProvider(tp)
	})
	return initErr
}

// Shutdown flushes and stops the tracer provider set up by Init.
func Shutdown(ctx context.Context) error {
	providerMu.RLock()
	tp := provider
	providerMu.RUnlock()
	if tp == nil {
		return nil
	}
	return tp.Shutdown(ctx)
}

// StartDecisionSpan opens the span covering one turn's scoring and
// escalation decision. The span's trace id is pushed into the context so
// log lines and audit events for the turn carry it.
func StartDecisionSpan(ctx context.Context, sessionID string) (context.Context, trace.Span) {
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "engine.decide",
		trace.WithAttributes(attribute.String("session.id", sessionID)),
	)

	if GetTraceID(ctx) == "" {
		if sc := span.SpanContext(); sc.IsValid() {
			ctx = WithTraceID(ctx, sc.TraceID().String())
		}
	}

	return ctx, span
}

// MarkEscalated tags the decision span with the escalation outcome.
func MarkEscalated(span trace.Span, escalationType, priority string) {
	span.SetAttributes(
		attribute.String("escalation.type", escalationType),
		attribute.String("escalation.priority", priority),
	)
}
