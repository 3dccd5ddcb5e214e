package cleanup

import (
	"formatwave/internal/core/port"
	"log/slog"
	"time"
)

// Options tunes the two purge phases
type Options struct {
	// PurgeGrace delays the physical deletion of an expired session
	PurgeGrace time.Duration
	// TombstoneRetention is how long purged sessions still answer "expired"
	TombstoneRetention time.Duration
}

type cleanupService struct {
	repo     port.SessionRepository
	sessions port.SessionService
	opts     Options
	logger   *slog.Logger
}

// NewCleanupService creates a new cleanup service
func NewCleanupService(repo port.SessionRepository, sessions port.SessionService, opts Options, logger *slog.Logger) port.CleanupService {
	return &cleanupService{
		repo:     repo,
		sessions: sessions,
		opts:     opts,
		logger:   logger,
	}
}
