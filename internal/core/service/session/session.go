package session

import (
	"context"
	"errors"
	"fmt"
	"formatwave/internal/core/domain"
	"formatwave/internal/core/port"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type sessionService struct {
	repo      port.SessionRepository
	storage   port.ArtifactStorage
	publisher port.EventPublisher
	ttl       time.Duration
	now       func() time.Time
	leases    *leaseTracker
	logger    *slog.Logger
}

// Option configures the session service
type Option func(*sessionService)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *sessionService) {
		s.now = now
	}
}

// NewSessionService creates a new session service
func NewSessionService(repo port.SessionRepository, storage port.ArtifactStorage, publisher port.EventPublisher, ttl time.Duration, logger *slog.Logger, opts ...Option) port.SessionService {
	s := &sessionService{
		repo:      repo,
		storage:   storage,
		publisher: publisher,
		ttl:       ttl,
		now:       time.Now,
		leases:    newLeaseTracker(),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create records the outcome of a batch. Intake rejections and conversion failures are
// merged in submission order.
func (s *sessionService) Create(ctx context.Context, batch *domain.StagedBatch, outcomes []domain.ConversionOutcome) (*domain.Session, error) {
	now := s.now().UTC()
	session := domain.Session{
		ID:           batch.SessionID,
		ConversionID: batch.Spec.ID,
		Status:       domain.SessionStatusActive,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.ttl),
		Artifacts:    []domain.ResultArtifact{},
		Failures:     append([]domain.FileFailure{}, batch.Rejected...),
	}

	sorted := append([]domain.ConversionOutcome(nil), outcomes...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Position < sorted[j].Position
	})
	for _, outcome := range sorted {
		if outcome.Failure != nil {
			session.Failures = append(session.Failures, *outcome.Failure)
			continue
		}
		session.Artifacts = append(session.Artifacts, outcome.Artifacts...)
	}
	sort.SliceStable(session.Failures, func(i, j int) bool {
		return session.Failures[i].Position < session.Failures[j].Position
	})
	session.TotalConverted = len(session.Artifacts)

	if err := s.repo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	s.publish(ctx, domain.EventTypeSessionCreated, session, now)
	s.logger.Info("session created",
		"session_id", session.ID,
		"conversion_id", session.ConversionID,
		"total_converted", session.TotalConverted,
		"total_errors", len(session.Failures),
		"expires_at", session.ExpiresAt,
	)
	return &session, nil
}

// Get returns an active session. Expiry is decided by the wall clock, the janitor
// only reclaims what Get already refuses.
func (s *sessionService) Get(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Status != domain.SessionStatusActive || session.IsExpired(s.now()) {
		return nil, domain.ErrSessionExpired
	}
	return session, nil
}

// Acquire returns an active session and holds a lease on it until release is called.
// A leased session is never purged.
func (s *sessionService) Acquire(ctx context.Context, id uuid.UUID) (*domain.Session, func(), error) {
	if !s.leases.acquire(id) {
		return nil, nil, domain.ErrSessionExpired
	}

	session, err := s.Get(ctx, id)
	if err != nil {
		s.leases.release(id)
		return nil, nil, err
	}

	var once sync.Once
	release := func() {
		once.Do(func() { s.leases.release(id) })
	}
	return session, release, nil
}

// Expire flags an active session as expired. Already expired or purged sessions are left untouched.
func (s *sessionService) Expire(ctx context.Context, id uuid.UUID) error {
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if session.Status != domain.SessionStatusActive {
		return nil
	}

	if err := s.repo.UpdateStatus(ctx, id, domain.SessionStatusExpired); err != nil {
		return fmt.Errorf("failed to expire session: %w", err)
	}

	s.publish(ctx, domain.EventTypeSessionExpired, *session, s.now().UTC())
	return nil
}

// Purge deletes the session storage and leaves a tombstone. Purging a purged or
// unknown session is a no-op, purging a leased session fails with domain.ErrSessionInUse.
func (s *sessionService) Purge(ctx context.Context, id uuid.UUID) error {
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil
		}
		return err
	}
	if session.Status == domain.SessionStatusPurged {
		return nil
	}

	if !s.leases.retire(id) {
		return fmt.Errorf("%w: %d open stream(s)", domain.ErrSessionInUse, s.leases.held(id))
	}

	if err := s.storage.DeletePrefix(ctx, domain.StoragePrefix(id)); err != nil {
		return fmt.Errorf("failed to delete session storage: %w", err)
	}

	purgedAt := s.now().UTC()
	if err := s.repo.MarkPurged(ctx, id, purgedAt); err != nil {
		return fmt.Errorf("failed to mark session purged: %w", err)
	}
	s.leases.forget(id)

	s.publish(ctx, domain.EventTypeSessionPurged, *session, purgedAt)
	s.logger.Info("session purged", "session_id", id, "artifacts", len(session.Artifacts))
	return nil
}

// publish is best effort, a broker outage never fails a request
func (s *sessionService) publish(ctx context.Context, eventType domain.EventType, session domain.Session, at time.Time) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, domain.NewSessionEvent(eventType, session, at)); err != nil {
		s.logger.Warn("failed to publish session event", "type", eventType, "session_id", session.ID, "error", err)
	}
}
