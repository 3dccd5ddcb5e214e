package memory

import (
	"context"
	"fmt"
	"formatwave/internal/core/domain"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionRepository keeps sessions in a map. Sessions are lost on restart.
type SessionRepository struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]domain.Session
}

// NewSessionRepository creates an empty SessionRepository
func NewSessionRepository() *SessionRepository {
	return &SessionRepository{sessions: make(map[uuid.UUID]domain.Session)}
}

// Create stores a new session
func (r *SessionRepository) Create(ctx context.Context, session domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[session.ID]; ok {
		return fmt.Errorf("%w: session %s", domain.ErrAlreadyExists, session.ID)
	}
	r.sessions[session.ID] = session.Clone()
	return nil
}

// FindByID returns a copy of the session
func (r *SessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	clone := session.Clone()
	return &clone, nil
}

// FindAllExpired returns active or expired sessions whose expiry is not after now, oldest first
func (r *SessionRepository) FindAllExpired(ctx context.Context, now time.Time) ([]domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var expired []domain.Session
	for _, session := range r.sessions {
		if session.Status == domain.SessionStatusPurged || !session.IsExpired(now) {
			continue
		}
		expired = append(expired, session.Clone())
	}

	sort.Slice(expired, func(i, j int) bool {
		return expired[i].ExpiresAt.Before(expired[j].ExpiresAt)
	})
	return expired, nil
}

// UpdateStatus changes the status of a session
func (r *SessionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.SessionStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	session.Status = status
	r.sessions[id] = session
	return nil
}

// MarkPurged turns the session into a tombstone without artifacts
func (r *SessionRepository) MarkPurged(ctx context.Context, id uuid.UUID, purgedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	session.Status = domain.SessionStatusPurged
	session.PurgedAt = &purgedAt
	session.Artifacts = nil
	session.Failures = nil
	r.sessions[id] = session
	return nil
}

// DeleteTombstones forgets sessions purged before purgedBefore
func (r *SessionRepository) DeleteTombstones(ctx context.Context, purgedBefore time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	deleted := 0
	for id, session := range r.sessions {
		if session.Status != domain.SessionStatusPurged || session.PurgedAt == nil {
			continue
		}
		if session.PurgedAt.Before(purgedBefore) {
			delete(r.sessions, id)
			deleted++
		}
	}
	return deleted, nil
}
