package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Store is the persistence the sweeper needs.
type Store interface {
	// ClearExpiredCooldowns nulls every cooldown ending strictly before now
	// and returns the affected handles. It must not rewrite purchases and
	// must re-check the cooldown in the same statement, so a purchase that
	// arms a fresh cooldown concurrently is never undone.
	ClearExpiredCooldowns(ctx context.Context, now time.Time) ([]string, error)
}

// Sweeper periodically removes expired cooldowns from storage. It applies
// the same rule as Limiter.Sweep, but inside the store.
// IsOnCooldown never depends on it having run.
type Sweeper struct {
	store    Store
	interval time.Duration
	now      func() time.Time
	logger   zerolog.Logger
}

// NewSweeper creates a sweeper running every interval.
func NewSweeper(store Store, interval time.Duration, logger zerolog.Logger) *Sweeper {
	return &Sweeper{
		store:    store,
		interval: interval,
		now:      time.Now,
		logger:   logger.With().Str("component", "cooldown-sweeper").Logger(),
	}
}

// Start runs the sweeper in its own goroutine. The returned stop func
// cancels it and blocks until Run has returned, including any sweep that
// was in flight.
func (s *Sweeper) Start(ctx context.Context) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		s.Run(ctx)
	}()

	return func() {
		cancel()
		<-done
	}
}

// Run sweeps on every tick until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info().Dur("interval", s.interval).Msg("cooldown sweeper started")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("cooldown sweeper stopped")
			return
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil {
				s.logger.Error().Err(err).Msg("cooldown sweep failed")
			}
		}
	}
}

// SweepOnce clears expired cooldowns and returns how many entries changed.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	cleared, err := s.store.ClearExpiredCooldowns(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to clear expired cooldowns: %w", err)
	}

	if len(cleared) > 0 {
		s.logger.Debug().Strs("buyers", cleared).Msg("expired cooldowns cleared")
	}

	return len(cleared), nil
}
