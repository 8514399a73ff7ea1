// Package sessionstate tracks per-conversation counters feeding the
// escalation policy: interaction totals, fallback streaks, repeated-request
// streaks, and escalation counts. Counters are created on first use and
// mutated only through Store methods.
package sessionstate

import (
	"fmt"
	"sync"
	"time"

	"github.com/rizki/eskala/internal/observability"
	"github.com/rs/zerolog"
)

// Counters is a snapshot of one session's state. Copies are returned to
// callers; internal state never escapes the store.
type Counters struct {
	SessionID         string    `json:"session_id"`
	TotalInteractions int       `json:"total_interactions"`
	CapabilitiesUsed  []string  `json:"capabilities_used"`
	Escalations       int       `json:"escalations"`
	FallbackStreak    int       `json:"fallback_streak"`
	RepeatStreak      int       `json:"repeat_streak"`
	CreatedAt         time.Time `json:"created_at"`
	LastSeen          time.Time `json:"last_seen"`
}

// Store holds session counters keyed by session ID. A single mutex guards the
// table; every operation is short and non-blocking, so one region is enough.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Counters
	logger   zerolog.Logger
}

// NewStore creates an empty session store
func NewStore(logger zerolog.Logger) *Store {
	observability.EnsureRegistered()
	return &Store{
		sessions: make(map[string]*Counters),
		logger:   logger.With().Str("component", "sessionstate").Logger(),
	}
}

// GetOrCreate returns a snapshot of the session's counters, initializing
// zeroed counters on first reference. Creation is idempotent under
// concurrent access.
func (s *Store) GetOrCreate(sessionID string) Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot(s.getOrCreateLocked(sessionID))
}

func (s *Store) getOrCreateLocked(sessionID string) *Counters {
	if c, ok := s.sessions[sessionID]; ok {
		return c
	}

	now := time.Now()
	c := &Counters{
		SessionID: sessionID,
		CreatedAt: now,
		LastSeen:  now,
	}
	s.sessions[sessionID] = c

	s.logger.Debug().Str("session_id", sessionID).Msg("Session created")
	observability.SetActiveSessions(len(s.sessions))

	return c
}

// RecordTurn registers a resolved turn: increments the interaction total,
// accumulates invoked capabilities, and updates the fallback streak. A turn
// at or above the threshold resets the streak to zero; anything below
// increments it.
func (s *Store) RecordTurn(sessionID string, confidence, threshold float64, capabilities []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.getOrCreateLocked(sessionID)
	c.TotalInteractions++
	c.CapabilitiesUsed = append(c.CapabilitiesUsed, capabilities...)
	c.LastSeen = time.Now()

	if confidence >= threshold {
		c.FallbackStreak = 0
	} else {
		c.FallbackStreak++
	}
}

// RecordRepeat updates the repeated-request streak: increments when the
// request text equals the prior one, resets to zero otherwise.
func (s *Store) RecordRepeat(sessionID string, isRepeat bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.getOrCreateLocked(sessionID)
	if isRepeat {
		c.RepeatStreak++
	} else {
		c.RepeatStreak = 0
	}
	c.LastSeen = time.Now()
}

// RecordEscalation increments the session's escalation count
func (s *Store) RecordEscalation(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.getOrCreateLocked(sessionID)
	c.Escalations++
	c.LastSeen = time.Now()
}

// Len returns the number of tracked sessions
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// EvictIdle removes sessions idle for longer than ttl and returns how many
// were evicted
func (s *Store) EvictIdle(ttl time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-ttl)
	evicted := 0
	for id, c := range s.sessions {
		if c.LastSeen.Before(cutoff) {
			delete(s.sessions, id)
			evicted++
		}
	}

	if evicted > 0 {
		s.logger.Info().Int("evicted", evicted).Msg("Idle sessions evicted")
		observability.SetActiveSessions(len(s.sessions))
		observability.RecordSessionsSwept(evicted)
	}

	return evicted
}

// Summary describes a session for status reporting
func (s *Store) Summary(sessionID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.sessions[sessionID]
	if !ok {
		return "", fmt.Errorf("unknown session: %s", sessionID)
	}

	return fmt.Sprintf("session %s: %d interactions, %d escalations, fallback streak %d",
		c.SessionID, c.TotalInteractions, c.Escalations, c.FallbackStreak), nil
}

func snapshot(c *Counters) Counters {
	copied := *c
	copied.CapabilitiesUsed = append([]string(nil), c.CapabilitiesUsed...)
	return copied
}
