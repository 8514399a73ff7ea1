package sessionstate

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Sweeper evicts idle sessions on a cron schedule. It is opt-in: without a
// sweeper, sessions live for the process lifetime.
type Sweeper struct {
	cron   *cron.Cron
	store  *Store
	ttl    time.Duration
	logger zerolog.Logger
}

// NewSweeper creates a sweeper evicting sessions idle longer than ttl,
// running on the given cron schedule (e.g. "@every 10m").
func NewSweeper(store *Store, schedule string, ttl time.Duration, logger zerolog.Logger) (*Sweeper, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("sweeper ttl must be positive, got %s", ttl)
	}

	s := &Sweeper{
		cron:   cron.New(),
		store:  store,
		ttl:    ttl,
		logger: logger.With().Str("component", "session-sweeper").Logger(),
	}

	if _, err := s.cron.AddFunc(schedule, s.sweep); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}

	return s, nil
}

// Start begins running sweeps on the schedule
func (s *Sweeper) Start() {
	s.cron.Start()
	s.logger.Info().Dur("ttl", s.ttl).Msg("Session sweeper started")
}

// Stop halts the schedule; a sweep already in flight runs to completion
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info().Msg("Session sweeper stopped")
}

func (s *Sweeper) sweep() {
	evicted := s.store.EvictIdle(s.ttl)
	if evicted > 0 {
		s.logger.Debug().Int("evicted", evicted).Msg("Sweep completed")
	}
}
