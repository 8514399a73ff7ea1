package escalation

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingSink struct {
	calls int
}

func (f *failingSink) Append(Record) error {
	f.calls++
	return fmt.Errorf("disk full")
}

func (f *failingSink) Close() error { return nil }

func TestLedger(t *testing.T) {
	ctx := context.Background()

	t.Run("append assigns id and timestamp", func(t *testing.T) {
		ledger := NewLedger(zerolog.Nop(), nil)

		stored := ledger.Append(ctx, Record{
			SessionID: "s1",
			Decision:  Decision{ShouldEscalate: true, Type: TypeLowConfidence, Priority: PriorityMedium, Confidence: 0.36},
		})

		assert.NotEmpty(t, stored.ID)
		assert.False(t, stored.Timestamp.IsZero())
		assert.Equal(t, 1, ledger.Len())
	})

	t.Run("caller supplied id preserved", func(t *testing.T) {
		ledger := NewLedger(zerolog.Nop(), nil)
		ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

		stored := ledger.Append(ctx, Record{ID: "rec-1", Timestamp: ts, SessionID: "s1"})

		assert.Equal(t, "rec-1", stored.ID)
		assert.Equal(t, ts, stored.Timestamp)
	})

	t.Run("records returns a copy", func(t *testing.T) {
		ledger := NewLedger(zerolog.Nop(), nil)
		ledger.Append(ctx, Record{SessionID: "s1"})

		records := ledger.Records()
		records[0].SessionID = "tampered"

		assert.Equal(t, "s1", ledger.Records()[0].SessionID)
	})

	t.Run("sink failure does not lose the record", func(t *testing.T) {
		sink := &failingSink{}
		ledger := NewLedger(zerolog.Nop(), sink)

		stored := ledger.Append(ctx, Record{SessionID: "s1"})

		assert.NotEmpty(t, stored.ID)
		assert.Equal(t, 1, ledger.Len())
		assert.Equal(t, 1, sink.calls)
	})

	t.Run("load seeds replayed records", func(t *testing.T) {
		ledger := NewLedger(zerolog.Nop(), nil)
		ledger.Load([]Record{{ID: "a", SessionID: "s1"}, {ID: "b", SessionID: "s2"}})

		require.Equal(t, 2, ledger.Len())
		assert.Equal(t, "a", ledger.Records()[0].ID)
	})
}

func TestLedgerStats(t *testing.T) {
	ctx := context.Background()

	t.Run("empty ledger reports zero", func(t *testing.T) {
		ledger := NewLedger(zerolog.Nop(), nil)
		stats := ledger.Stats(0.7)

		assert.Equal(t, 0, stats.Total)
		assert.Nil(t, stats.ByType)
		assert.Nil(t, stats.ByPriority)
		assert.Zero(t, stats.AverageConfidence)
	})

	t.Run("aggregates by type and priority", func(t *testing.T) {
		ledger := NewLedger(zerolog.Nop(), nil)
		ledger.Append(ctx, Record{Decision: Decision{Type: TypeSensitiveContent, Priority: PriorityHigh, Confidence: 0.5}})
		ledger.Append(ctx, Record{Decision: Decision{Type: TypeSensitiveContent, Priority: PriorityHigh, Confidence: 0.3}})
		ledger.Append(ctx, Record{Decision: Decision{Type: TypeLowConfidence, Priority: PriorityMedium, Confidence: 0.36}})

		stats := ledger.Stats(0.7)

		assert.Equal(t, 3, stats.Total)
		assert.Equal(t, map[Type]int{TypeSensitiveContent: 2, TypeLowConfidence: 1}, stats.ByType)
		assert.Equal(t, map[Priority]int{PriorityHigh: 2, PriorityMedium: 1}, stats.ByPriority)
		// (0.5 + 0.3 + 0.36) / 3 rounded to two decimals
		assert.Equal(t, 0.39, stats.AverageConfidence)
		assert.Equal(t, 0.7, stats.Threshold)
	})
}

func TestJSONLSink(t *testing.T) {
	t.Run("append and replay round trip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "escalations.jsonl")
		sink, err := NewJSONLSink(path)
		require.NoError(t, err)

		first := Record{
			ID:        "rec-1",
			Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
			SessionID: "s1",
			Turn:      Turn{SessionID: "s1", Request: "help", Response: "Sorry"},
			Decision: Decision{
				ShouldEscalate: true,
				Confidence:     0.36,
				Threshold:      0.7,
				Reasons:        []string{"Low confidence score: 0.36"},
				Type:           TypeLowConfidence,
				Priority:       PriorityMedium,
			},
		}
		second := Record{ID: "rec-2", SessionID: "s2"}

		require.NoError(t, sink.Append(first))
		require.NoError(t, sink.Append(second))
		require.NoError(t, sink.Close())

		records, err := ReplaySink(path, zerolog.Nop())
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, first, records[0])
		assert.Equal(t, "rec-2", records[1].ID)
	})

	t.Run("creates missing parent directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "dir", "escalations.jsonl")
		sink, err := NewJSONLSink(path)
		require.NoError(t, err)
		defer sink.Close()

		require.NoError(t, sink.Append(Record{ID: "rec-1", SessionID: "s1"}))
	})

	t.Run("append after close fails", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "escalations.jsonl")
		sink, err := NewJSONLSink(path)
		require.NoError(t, err)
		require.NoError(t, sink.Close())

		assert.Error(t, sink.Append(Record{ID: "rec-1"}))
		assert.NoError(t, sink.Close())
	})

	t.Run("replay skips corrupt lines", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "escalations.jsonl")
		content := `{"id":"rec-1","session_id":"s1"}
not json at all
{"id":"rec-2","session_id":"s2"}
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		records, err := ReplaySink(path, zerolog.Nop())
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "rec-1", records[0].ID)
		assert.Equal(t, "rec-2", records[1].ID)
	})

	t.Run("replay of missing file is empty", func(t *testing.T) {
		records, err := ReplaySink(filepath.Join(t.TempDir(), "missing.jsonl"), zerolog.Nop())
		require.NoError(t, err)
		assert.Empty(t, records)
	})
}
