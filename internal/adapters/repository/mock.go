package repository

import (
	"context"
	"formatwave/internal/core/domain"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockSessionRepository struct {
	mock.Mock
}

func NewMockSessionRepository() *MockSessionRepository {
	return &MockSessionRepository{}
}

func (m *MockSessionRepository) Create(ctx context.Context, session domain.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	args := m.Called(ctx, id)
	session, _ := args.Get(0).(*domain.Session)
	return session, args.Error(1)
}

func (m *MockSessionRepository) FindAllExpired(ctx context.Context, now time.Time) ([]domain.Session, error) {
	args := m.Called(ctx, now)
	return args.Get(0).([]domain.Session), args.Error(1)
}

func (m *MockSessionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.SessionStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockSessionRepository) MarkPurged(ctx context.Context, id uuid.UUID, purgedAt time.Time) error {
	args := m.Called(ctx, id, purgedAt)
	return args.Error(0)
}

func (m *MockSessionRepository) DeleteTombstones(ctx context.Context, purgedBefore time.Time) (int, error) {
	args := m.Called(ctx, purgedBefore)
	return args.Int(0), args.Error(1)
}
