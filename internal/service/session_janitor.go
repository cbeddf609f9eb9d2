package service

import (
	"context"
	"time"

	"github.com/prperemyshlev/social-service/internal/repository"
	"go.uber.org/zap"
)

// SessionJanitor periodically removes expired sessions from the store
type SessionJanitor struct {
	tokenRepo repository.TokenRepository
	interval  time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

func NewSessionJanitor(tokenRepo repository.TokenRepository, interval time.Duration, logger *zap.Logger) *SessionJanitor {
	return &SessionJanitor{
		tokenRepo: tokenRepo,
		interval:  interval,
		logger:    logger,
		now:       time.Now,
	}
}

// RunOnce deletes sessions that expired before now
func (j *SessionJanitor) RunOnce(ctx context.Context) (int64, error) {
	return j.tokenRepo.DeleteExpired(ctx, j.now())
}

// Run sweeps every interval until ctx is done. A non-positive interval disables it.
func (j *SessionJanitor) Run(ctx context.Context) {
	if j.interval <= 0 {
		return
	}

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := j.RunOnce(ctx)
			if err != nil {
				j.logger.Error("failed to delete expired sessions", zap.Error(err))
				continue
			}
			if deleted > 0 {
				j.logger.Info("deleted expired sessions", zap.Int64("count", deleted))
			}
		}
	}
}
