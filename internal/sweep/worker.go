package sweep

import (
	"context"
	"log/slog"
	"time"
)

// StartWorker runs sweeps on a fixed cadence, for deployments without an
// external cron. Each tick is one bounded batch, same as a cron invocation.
// Blocks until ctx is cancelled. Intended to be called with `go`.
func StartWorker(ctx context.Context, s *Sweeper, interval time.Duration, logger *slog.Logger) {
	logger.Info("Sweep worker started", "interval", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			if _, err := s.Run(ctx, now); err != nil {
				logger.Error("Sweep failed", "error", err)
			}
		case <-ctx.Done():
			logger.Info("Sweep worker stopped")
			return
		}
	}
}
