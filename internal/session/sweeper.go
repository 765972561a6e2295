package session

import (
	"context"
	"log/slog"
	"time"
)

// Sweep deletes sessions idle for longer than ttl every interval until ctx
// is cancelled.
func Sweep(ctx context.Context, store *Store, ttl, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.DeleteExpired(ctx, time.Now().Add(-ttl))
			if err != nil {
				logger.Warn("session sweep failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Debug("expired sessions removed", "count", n)
			}
		}
	}
}
