package background

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// ExpiredTokenCleaner deletes refresh tokens past their expiry
type ExpiredTokenCleaner interface {
	CleanupExpiredTokens(ctx context.Context) (int64, error)
}

// ExpiredStatePurger drops throttle entries whose TTL has lapsed. Only the
// in-process store needs this; Redis expires keys itself.
type ExpiredStatePurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// CleanupManager periodically removes expired refresh tokens and stale throttle state
type CleanupManager struct {
	tokens   ExpiredTokenCleaner
	throttle ExpiredStatePurger
	logger   *slog.Logger
	interval time.Duration
	timeout  time.Duration

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewCleanupManager creates a new cleanup manager. throttle may be nil.
func NewCleanupManager(
	tokens ExpiredTokenCleaner,
	throttle ExpiredStatePurger,
	logger *slog.Logger,
	interval time.Duration,
) *CleanupManager {
	return &CleanupManager{
		tokens:   tokens,
		throttle: throttle,
		logger:   logger,
		interval: interval,
		timeout:  30 * time.Second,
		stopCh:   make(chan struct{}),
	}
}

// Start runs one cleanup immediately, then one per interval, in a goroutine.
// It returns at once; use Stop to wait for the loop to exit.
func (cm *CleanupManager) Start(ctx context.Context) {
	cm.wg.Add(1)
	go func() {
		defer cm.wg.Done()

		ticker := time.NewTicker(cm.interval)
		defer ticker.Stop()

		cm.RunOnce(ctx)

		for {
			select {
			case <-ticker.C:
				cm.RunOnce(ctx)
			case <-cm.stopCh:
				cm.logger.Info("cleanup manager stopped")
				return
			case <-ctx.Done():
				cm.logger.Info("cleanup manager context cancelled")
				return
			}
		}
	}()
}

// RunOnce performs a single cleanup pass. Failures are logged, never returned.
func (cm *CleanupManager) RunOnce(ctx context.Context) {
	cleanupCtx, cancel := context.WithTimeout(ctx, cm.timeout)
	defer cancel()

	if cm.tokens != nil {
		rows, err := cm.tokens.CleanupExpiredTokens(cleanupCtx)
		if err != nil {
			cm.logger.Error("failed to cleanup expired refresh tokens", slog.Any("error", err))
		} else if rows > 0 {
			cm.logger.Info("expired refresh tokens removed", slog.Int64("rows_deleted", rows))
		}
	}

	if cm.throttle != nil {
		purged, err := cm.throttle.PurgeExpired(cleanupCtx)
		if err != nil {
			cm.logger.Error("failed to purge throttle state", slog.Any("error", err))
		} else if purged > 0 {
			cm.logger.Debug("expired throttle entries purged", slog.Int64("entries", purged))
		}
	}
}

// Stop signals the loop to exit and waits for it. Safe to call more than once.
func (cm *CleanupManager) Stop() {
	cm.stopOnce.Do(func() { close(cm.stopCh) })
	cm.wg.Wait()
}
