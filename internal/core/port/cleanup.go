package port

import (
	"context"
	"time"
)

// CleanupService is service that handles cleanup of expired sessions
type CleanupService interface {
	CleanupExpiredSessions(ctx context.Context, now time.Time) error
}
