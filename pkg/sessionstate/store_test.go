package sessionstate

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore() *Store {
	return NewStore(zerolog.Nop())
}

func TestGetOrCreate(t *testing.T) {
	store := newTestStore()

	c := store.GetOrCreate("s1")
	assert.Equal(t, "s1", c.SessionID)
	assert.Zero(t, c.TotalInteractions)
	assert.Zero(t, c.FallbackStreak)
	assert.Zero(t, c.RepeatStreak)
	assert.Zero(t, c.Escalations)
	assert.False(t, c.CreatedAt.IsZero())

	// Second call returns the same session, not a new one
	store.RecordEscalation("s1")
	again := store.GetOrCreate("s1")
	assert.Equal(t, 1, again.Escalations)
	assert.Equal(t, 1, store.Len())
}

func TestSnapshotIsolation(t *testing.T) {
	store := newTestStore()
	store.RecordTurn("s1", 0.5, 0.7, []string{"create_board"})

	c := store.GetOrCreate("s1")
	c.FallbackStreak = 99
	c.CapabilitiesUsed[0] = "mutated"

	fresh := store.GetOrCreate("s1")
	assert.Equal(t, 1, fresh.FallbackStreak)
	assert.Equal(t, []string{"create_board"}, fresh.CapabilitiesUsed)
}

func TestRecordTurnFallbackStreak(t *testing.T) {
	store := newTestStore()
	threshold := 0.7

	store.RecordTurn("s1", 0.5, threshold, nil)
	store.RecordTurn("s1", 0.6, threshold, nil)
	assert.Equal(t, 2, store.GetOrCreate("s1").FallbackStreak)

	// Confident turn resets the streak
	store.RecordTurn("s1", 0.8, threshold, nil)
	assert.Equal(t, 0, store.GetOrCreate("s1").FallbackStreak)

	// Exactly at threshold counts as confident
	store.RecordTurn("s1", 0.5, threshold, nil)
	store.RecordTurn("s1", 0.7, threshold, nil)
	assert.Equal(t, 0, store.GetOrCreate("s1").FallbackStreak)

	assert.Equal(t, 5, store.GetOrCreate("s1").TotalInteractions)
}

func TestRecordTurnAccumulatesCapabilities(t *testing.T) {
	store := newTestStore()

	store.RecordTurn("s1", 0.8, 0.7, []string{"create_board"})
	store.RecordTurn("s1", 0.8, 0.7, []string{"create_list", "create_card"})

	c := store.GetOrCreate("s1")
	assert.Equal(t, []string{"create_board", "create_list", "create_card"}, c.CapabilitiesUsed)
}

func TestRecordRepeat(t *testing.T) {
	store := newTestStore()

	store.RecordRepeat("s1", true)
	store.RecordRepeat("s1", true)
	assert.Equal(t, 2, store.GetOrCreate("s1").RepeatStreak)

	store.RecordRepeat("s1", false)
	assert.Equal(t, 0, store.GetOrCreate("s1").RepeatStreak)
}

func TestSessionsAreIndependent(t *testing.T) {
	store := newTestStore()

	store.RecordTurn("s1", 0.2, 0.7, nil)
	store.RecordTurn("s2", 0.9, 0.7, nil)

	assert.Equal(t, 1, store.GetOrCreate("s1").FallbackStreak)
	assert.Equal(t, 0, store.GetOrCreate("s2").FallbackStreak)
	assert.Equal(t, 2, store.Len())
}

func TestConcurrentAccess(t *testing.T) {
	store := newTestStore()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			sessionID := fmt.Sprintf("s%d", n%4)
			for j := 0; j < 50; j++ {
				store.RecordTurn(sessionID, 0.5, 0.7, []string{"tool"})
				store.RecordRepeat(sessionID, j%2 == 0)
				store.GetOrCreate(sessionID)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 4, store.Len())
	total := 0
	for i := 0; i < 4; i++ {
		total += store.GetOrCreate(fmt.Sprintf("s%d", i)).TotalInteractions
	}
	assert.Equal(t, 20*50, total)
}

func TestEvictIdle(t *testing.T) {
	store := newTestStore()

	store.RecordTurn("old", 0.8, 0.7, nil)
	// Backdate the session by reaching through the map
	store.mu.Lock()
	store.sessions["old"].LastSeen = time.Now().Add(-2 * time.Hour)
	store.mu.Unlock()

	store.RecordTurn("fresh", 0.8, 0.7, nil)

	evicted := store.EvictIdle(time.Hour)
	assert.Equal(t, 1, evicted)
	assert.Equal(t, 1, store.Len())

	_, err := store.Summary("old")
	assert.Error(t, err)
}

func TestSummary(t *testing.T) {
	store := newTestStore()
	store.RecordTurn("s1", 0.2, 0.7, nil)
	store.RecordEscalation("s1")

	summary, err := store.Summary("s1")
	require.NoError(t, err)
	assert.Contains(t, summary, "s1")
	assert.Contains(t, summary, "1 interactions")
	assert.Contains(t, summary, "1 escalations")
}

func TestSweeper(t *testing.T) {
	store := newTestStore()

	t.Run("rejects bad schedule", func(t *testing.T) {
		_, err := NewSweeper(store, "not a schedule", time.Hour, zerolog.Nop())
		assert.Error(t, err)
	})

	t.Run("rejects non-positive ttl", func(t *testing.T) {
		_, err := NewSweeper(store, "@every 1m", 0, zerolog.Nop())
		assert.Error(t, err)
	})

	t.Run("sweeps on schedule", func(t *testing.T) {
		store := newTestStore()
		store.RecordTurn("idle", 0.8, 0.7, nil)
		store.mu.Lock()
		store.sessions["idle"].LastSeen = time.Now().Add(-time.Hour)
		store.mu.Unlock()

		sweeper, err := NewSweeper(store, "@every 100ms", time.Minute, zerolog.Nop())
		require.NoError(t, err)

		sweeper.Start()
		defer sweeper.Stop()

		require.Eventually(t, func() bool {
			return store.Len() == 0
		}, 5*time.Second, 50*time.Millisecond)
	})
}
