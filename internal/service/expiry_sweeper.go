package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

const sweepBatchSize = 100

// ExpirySweeper periodically auto-submits attempts whose countdown ran out while nobody was
// looking at them.
type ExpirySweeper struct {
	attempts AttemptService
	interval time.Duration
}

func NewExpirySweeper(attempts AttemptService, interval time.Duration) *ExpirySweeper {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &ExpirySweeper{attempts: attempts, interval: interval}
}

// Run sweeps until ctx is cancelled.
func (s *ExpirySweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Info().Dur("interval", s.interval).Msg("Expiry sweeper started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Expiry sweeper stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep finalizes every overdue attempt, one batch at a time.
func (s *ExpirySweeper) Sweep(ctx context.Context) int {
	total := 0
	for ctx.Err() == nil {
		n, err := s.attempts.ExpireDue(ctx, sweepBatchSize)
		if err != nil {
			log.Error().Err(err).Msg("Expiry sweep failed")
			return total
		}
		total += n
		if n < sweepBatchSize {
			break
		}
	}
	if total > 0 {
		log.Info().Int("finalized", total).Msg("Expired attempts auto-submitted")
	}
	return total
}
