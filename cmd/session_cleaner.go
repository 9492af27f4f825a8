package main

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"eventmarket/internal/services"
)

const sessionCleanerTimeout = 30 * time.Second

// startSessionCleaner periodically deletes expired sessions until ctx is
// cancelled. A non-positive interval disables it.
func startSessionCleaner(ctx context.Context, svc *services.UserService, interval time.Duration, logger zerolog.Logger) {
	if svc == nil || interval <= 0 {
		return
	}
	logger = logger.With().Str("component", "session_cleaner").Logger()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		run := func() {
			runCtx, cancel := context.WithTimeout(ctx, sessionCleanerTimeout)
			defer cancel()

			purged, err := svc.PurgeExpiredSessions(runCtx)
			if err != nil {
				logger.Error().Err(err).Msg("failed to purge expired sessions")
				return
			}
			if purged > 0 {
				logger.Info().Int64("purged", purged).Msg("purged expired sessions")
			}
		}

		run()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				run()
			}
		}
	}()
}
