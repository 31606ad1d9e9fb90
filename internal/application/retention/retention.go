package retention

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// TokenPurger deletes reset-token rows that can never authorize a reset
// again. Only durable stores need it; TTL-based stores expire rows on
// their own.
type TokenPurger interface {
	PurgeDeadResetTokens(ctx context.Context, before time.Time) (int64, error)
}

// RunPurgeResetTokens removes consumed and long-expired reset tokens older
// than keepFor. Call periodically. keepFor <= 0 = no-op. Purging is pure
// hygiene: lookups already treat those rows as absent.
func RunPurgeResetTokens(ctx context.Context, purger TokenPurger, keepFor time.Duration) (int64, error) {
	if keepFor <= 0 {
		return 0, nil
	}
	return purger.PurgeDeadResetTokens(ctx, time.Now().Add(-keepFor))
}

// Sweep purges on a fixed interval until ctx is cancelled. Run it in its
// own goroutine; cancelling ctx is the shutdown path.
func Sweep(ctx context.Context, purger TokenPurger, interval, keepFor time.Duration, log zerolog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			purged, err := RunPurgeResetTokens(ctx, purger, keepFor)
			if err != nil {
				log.Warn().Err(err).Msg("reset token purge failed")
				continue
			}
			if purged > 0 {
				log.Info().Int64("purged", purged).Msg("reset tokens purged")
			}
		}
	}
}
