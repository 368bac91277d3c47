package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// TokenSweeper removes expired tokens from storage.
type TokenSweeper interface {
	SweepExpiredTokens(ctx context.Context) (int64, error)
}

// RunTokenSweeper purges expired tokens every interval until ctx is done.
// A non-positive interval returns immediately.
func RunTokenSweeper(ctx context.Context, sweeper TokenSweeper, interval time.Duration, logger *zap.Logger) {
	if sweeper == nil || interval <= 0 {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("token sweeper started", zap.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			logger.Info("token sweeper stopped")
			return
		case <-ticker.C:
			removed, err := sweeper.SweepExpiredTokens(ctx)
			if err != nil {
				logger.Error("token sweep failed", zap.Error(err))
				continue
			}
			if removed > 0 {
				logger.Info("expired tokens removed", zap.Int64("count", removed))
			}
		}
	}
}
