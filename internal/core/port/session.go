package port

import (
	"context"
	"formatwave/internal/core/domain"
	"time"

	"github.com/google/uuid"
)

// SessionRepository is an interface to interact with session repositories
type SessionRepository interface {
	Create(ctx context.Context, session domain.Session) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Session, error)
	FindAllExpired(ctx context.Context, now time.Time) ([]domain.Session, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.SessionStatus) error
	MarkPurged(ctx context.Context, id uuid.UUID, purgedAt time.Time) error
	DeleteTombstones(ctx context.Context, purgedBefore time.Time) (int, error)
}

// SessionService owns session metadata and guards reads against concurrent purge
type SessionService interface {
	Create(ctx context.Context, batch *domain.StagedBatch, outcomes []domain.ConversionOutcome) (*domain.Session, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Session, error)
	Acquire(ctx context.Context, id uuid.UUID) (*domain.Session, func(), error)
	Expire(ctx context.Context, id uuid.UUID) error
	Purge(ctx context.Context, id uuid.UUID) error
}
