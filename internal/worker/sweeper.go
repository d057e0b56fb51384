package worker

import (
	"context"
	"log/slog"
	"time"
)

// Sweepable drops expired entries and reports how many were removed.
// Implemented by api.RateLimiter.
type Sweepable interface {
	Sweep() int
}

// RateLimitSweeper periodically purges expired rate-limit windows so the
// limiter's table does not grow with every client ever seen.
type RateLimitSweeper struct {
	limiter  Sweepable
	interval time.Duration
}

// NewRateLimitSweeper creates a sweeper.
func NewRateLimitSweeper(limiter Sweepable, interval time.Duration) *RateLimitSweeper {
	return &RateLimitSweeper{limiter: limiter, interval: interval}
}

// Run starts the sweep loop. Blocks until ctx is cancelled.
// The first sweep happens after one interval.
func (s *RateLimitSweeper) Run(ctx context.Context) {
	slog.Info("rate limit sweeper started",
		"component", "worker",
		"worker", "rate-limit-sweeper",
		"interval", s.interval.String(),
	)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("rate limit sweeper stopped",
				"component", "worker",
				"worker", "rate-limit-sweeper",
				"reason", "context_cancelled",
			)
			return
		case <-ticker.C:
			if removed := s.limiter.Sweep(); removed > 0 {
				slog.Debug("rate limit windows purged",
					"component", "worker",
					"worker", "rate-limit-sweeper",
					"removed", removed,
				)
			}
		}
	}
}
