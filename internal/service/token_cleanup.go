package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type expiredTokenClearer interface {
	ClearExpiredResetTokens(ctx context.Context) (int64, error)
}

// TokenCleanup periodically drops password reset tokens that expired without
// being used. It stops when ctx is cancelled, the returned channel is closed
// once it has.
func TokenCleanup(ctx context.Context, t time.Duration, users expiredTokenClearer) <-chan struct{} {
	ticker := time.NewTicker(t)
	done := make(chan struct{})

	zap.L().Debug("Token cleanup attached", zap.Duration("tick_every", t))

	go func() {
		defer close(done)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				zap.L().Debug("Token cleanup stopped")
				return
			case <-ticker.C:
				n, err := users.ClearExpiredResetTokens(ctx)
				if err != nil {
					zap.L().Error("Failed to clean up expired reset tokens", zap.Error(err))
					continue
				}

				if n > 0 {
					zap.L().Debug("Cleaned up expired reset tokens", zap.Int64("count", n))
				}
			}
		}
	}()

	return done
}
