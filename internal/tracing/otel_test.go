package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecisionSpan(t *testing.T) {
	require.NoError(t, Init("eskala-test"))
	require.NoError(t, Init("eskala-test"), "repeat init should be a no-op")

	t.Run("assigns a trace id", func(t *testing.T) {
		ctx, span := StartDecisionSpan(context.Background(), "s1")
		defer span.End()

		assert.NotEmpty(t, GetTraceID(ctx))
		assert.True(t, span.SpanContext().IsValid())
	})

	t.Run("keeps an existing trace id", func(t *testing.T) {
		ctx := WithTraceID(context.Background(), "trace-123")
		ctx, span := StartDecisionSpan(ctx, "s1")
		defer span.End()

		assert.Equal(t, "trace-123", GetTraceID(ctx))
	})

	require.NoError(t, Shutdown(context.Background()))
}
