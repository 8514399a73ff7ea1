package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rizki/eskala/internal/config"
	"github.com/rizki/eskala/pkg/escalation"
)

const (
	confidentRequest  = "Create a card for the quarterly report on my planning board"
	confidentResponse = "I created the card successfully and here are the details you asked for. " +
		"The board now shows the new card at the top of your to-do list today."
	strugglingRequest  = "Show boards"
	strugglingResponse = "Sorry, I cannot find that, error occurred"
)

func newTestEngine() *Engine {
	return New(Options{Logger: zerolog.Nop()})
}

func TestEvaluateAndDecide(t *testing.T) {
	ctx := context.Background()

	t.Run("confident tool backed turn passes", func(t *testing.T) {
		eng := newTestEngine()

		result, err := eng.EvaluateAndDecide(ctx, Request{
			SessionID:    "s1",
			RequestText:  confidentRequest,
			ResponseText: confidentResponse,
			Capabilities: []string{"create_card", "get_boards"},
		})

		require.NoError(t, err)
		assert.Equal(t, 0.8, result.Confidence)
		assert.False(t, result.Decision.ShouldEscalate)
		assert.Empty(t, result.Decision.Reasons)
		assert.Empty(t, result.EscalationMessage)
		assert.Equal(t, 0, eng.Stats().Total)
	})

	t.Run("low confidence turn escalates with message", func(t *testing.T) {
		eng := newTestEngine()

		result, err := eng.EvaluateAndDecide(ctx, Request{
			SessionID:    "s1",
			RequestText:  strugglingRequest,
			ResponseText: strugglingResponse,
		})

		require.NoError(t, err)
		assert.Equal(t, 0.36, result.Confidence)
		require.True(t, result.Decision.ShouldEscalate)
		assert.Contains(t, result.Decision.Reasons, "Low confidence score: 0.36")
		assert.Equal(t, escalation.TypeLowConfidence, result.Decision.Type)
		assert.NotEmpty(t, result.EscalationMessage)
		assert.Equal(t, 1, eng.Stats().Total)
	})

	t.Run("fallback streak fires on the third struggling turn", func(t *testing.T) {
		eng := newTestEngine()
		req := Request{
			SessionID:    "s1",
			RequestText:  strugglingRequest,
			ResponseText: strugglingResponse,
		}

		first, err := eng.EvaluateAndDecide(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, []string{"Low confidence score: 0.36"}, first.Decision.Reasons)

		second, err := eng.EvaluateAndDecide(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, []string{"Low confidence score: 0.36"}, second.Decision.Reasons)

		third, err := eng.EvaluateAndDecide(ctx, req)
		require.NoError(t, err)
		assert.Contains(t, third.Decision.Reasons, "Multiple fallback attempts: 2")

		counters := eng.Sessions().GetOrCreate("s1")
		assert.Equal(t, 3, counters.TotalInteractions)
		assert.Equal(t, 3, counters.Escalations)
		assert.Equal(t, 3, counters.FallbackStreak)
	})

	t.Run("confident turn resets the fallback streak", func(t *testing.T) {
		eng := newTestEngine()
		struggling := Request{SessionID: "s1", RequestText: strugglingRequest, ResponseText: strugglingResponse}

		_, err := eng.EvaluateAndDecide(ctx, struggling)
		require.NoError(t, err)
		_, err = eng.EvaluateAndDecide(ctx, Request{
			SessionID:    "s1",
			RequestText:  confidentRequest,
			ResponseText: confidentResponse,
			Capabilities: []string{"create_card", "get_boards"},
		})
		require.NoError(t, err)

		assert.Equal(t, 0, eng.Sessions().GetOrCreate("s1").FallbackStreak)
	})

	t.Run("sensitive topic escalates at high priority", func(t *testing.T) {
		eng := newTestEngine()

		result, err := eng.EvaluateAndDecide(ctx, Request{
			SessionID:    "s1",
			RequestText:  "There is a bug in my board",
			ResponseText: confidentResponse,
			Capabilities: []string{"get_boards"},
		})

		require.NoError(t, err)
		require.True(t, result.Decision.ShouldEscalate)
		assert.Equal(t, escalation.TypeSensitiveContent, result.Decision.Type)
		assert.Equal(t, escalation.PriorityHigh, result.Decision.Priority)
		assert.Contains(t, result.EscalationMessage, "sensitive")
	})

	t.Run("repeated requests escalate once the streak reaches the trigger", func(t *testing.T) {
		eng := newTestEngine()
		req := Request{
			SessionID:         "s1",
			RequestText:       confidentRequest,
			ResponseText:      confidentResponse,
			Capabilities:      []string{"create_card", "get_boards"},
			IsRepeatedRequest: true,
		}

		for i := 0; i < 3; i++ {
			result, err := eng.EvaluateAndDecide(ctx, req)
			require.NoError(t, err)
			assert.False(t, result.Decision.ShouldEscalate, "turn %d", i+1)
		}

		// fourth turn sees the streak of 3 built by the previous turns
		result, err := eng.EvaluateAndDecide(ctx, req)
		require.NoError(t, err)
		require.True(t, result.Decision.ShouldEscalate)
		assert.Equal(t, []string{"Repeated similar requests: 3"}, result.Decision.Reasons)
		assert.Equal(t, escalation.TypeRepeatedAttempts, result.Decision.Type)
		assert.Equal(t, escalation.PriorityMedium, result.Decision.Priority)
	})

	t.Run("sessions are isolated", func(t *testing.T) {
		eng := newTestEngine()
		struggling := Request{SessionID: "s1", RequestText: strugglingRequest, ResponseText: strugglingResponse}

		_, err := eng.EvaluateAndDecide(ctx, struggling)
		require.NoError(t, err)
		_, err = eng.EvaluateAndDecide(ctx, struggling)
		require.NoError(t, err)

		other := struggling
		other.SessionID = "s2"
		result, err := eng.EvaluateAndDecide(ctx, other)
		require.NoError(t, err)
		assert.NotContains(t, result.Decision.Reasons, "Multiple fallback attempts: 2")
	})

	t.Run("missing session identifier fails fast", func(t *testing.T) {
		eng := newTestEngine()

		_, err := eng.EvaluateAndDecide(ctx, Request{RequestText: "hello", ResponseText: "hi"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "session identifier")
		assert.Equal(t, 0, eng.Sessions().Len())
	})
}

type brokenSink struct{}

func (brokenSink) Append(escalation.Record) error { return fmt.Errorf("disk full") }
func (brokenSink) Close() error                   { return nil }

func TestEvaluateAndDecideSinkFailure(t *testing.T) {
	eng := New(Options{
		Ledger: escalation.NewLedger(zerolog.Nop(), brokenSink{}),
		Logger: zerolog.Nop(),
	})

	result, err := eng.EvaluateAndDecide(context.Background(), Request{
		SessionID:    "s1",
		RequestText:  strugglingRequest,
		ResponseText: strugglingResponse,
	})

	require.NoError(t, err)
	assert.True(t, result.Decision.ShouldEscalate)
	assert.NotEmpty(t, result.EscalationMessage)
	assert.Equal(t, 1, eng.Stats().Total)
}

func TestApplyConfig(t *testing.T) {
	eng := newTestEngine()
	ctx := context.Background()

	cfg := config.DefaultConfig()
	cfg.Escalation.ConfidenceThreshold = 0.3
	eng.ApplyConfig(cfg)

	result, err := eng.EvaluateAndDecide(ctx, Request{
		SessionID:    "s1",
		RequestText:  strugglingRequest,
		ResponseText: strugglingResponse,
	})

	require.NoError(t, err)
	assert.False(t, result.Decision.ShouldEscalate)
	assert.Equal(t, 0.3, result.Decision.Threshold)
}

func TestNewFromConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.DataDir = dir
	cfg.Storage.LedgerFile = filepath.Join(dir, "escalations.jsonl")
	cfg.Storage.BoardDB = filepath.Join(dir, "boards.db")
	cfg.Storage.AuditFile = filepath.Join(dir, "audit.log")

	eng, err := NewFromConfig(cfg, zerolog.Nop())
	require.NoError(t, err)

	_, err = eng.EvaluateAndDecide(context.Background(), Request{
		SessionID:    "s1",
		RequestText:  strugglingRequest,
		ResponseText: strugglingResponse,
	})
	require.NoError(t, err)
	require.NoError(t, eng.Close())

	// a fresh engine replays the persisted ledger
	reopened, err := NewFromConfig(cfg, zerolog.Nop())
	require.NoError(t, err)
	defer reopened.Close()

	stats := reopened.Stats()
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 0.7, stats.Threshold)
}
