package cleanup

import (
	"context"
	"errors"
	"formatwave/internal/core/domain"
	"time"
)

// CleanupExpiredSessions marks sessions past their expiry as expired, then purges the
// expired ones once the grace window is over and no stream is open on them.
// Leased sessions are skipped and retried on the next run.
func (c *cleanupService) CleanupExpiredSessions(ctx context.Context, now time.Time) error {

	sessions, err := c.repo.FindAllExpired(ctx, now)
	if err != nil {
		return err
	}

	var expired, purged, deferred int
	for _, session := range sessions {
		if err := ctx.Err(); err != nil {
			return err
		}

		if session.Status == domain.SessionStatusActive {
			if expireErr := c.sessions.Expire(ctx, session.ID); expireErr != nil {
				c.logger.Error("failed to expire session", "session_id", session.ID, "err", expireErr)
				continue
			}
			expired++
		}

		if now.Before(session.ExpiresAt.Add(c.opts.PurgeGrace)) {
			continue
		}

		purgeErr := c.sessions.Purge(ctx, session.ID)
		switch {
		case errors.Is(purgeErr, domain.ErrSessionInUse):
			c.logger.Debug("session still in use, purge deferred", "session_id", session.ID)
			deferred++
		case purgeErr != nil:
			c.logger.Error("failed to purge session", "session_id", session.ID, "err", purgeErr)
		default:
			purged++
		}
	}

	dropped, err := c.repo.DeleteTombstones(ctx, now.Add(-c.opts.TombstoneRetention))
	if err != nil {
		c.logger.Error("failed to delete tombstones", "err", err)
	}

	c.logger.Info("cleanup expired sessions completed",
		"expired", expired,
		"purged", purged,
		"deferred", deferred,
		"tombstones_dropped", dropped,
	)
	return nil
}
