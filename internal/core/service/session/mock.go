package session

import (
	"context"
	"formatwave/internal/core/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockSessionService is a mock implementation of port.SessionService
type MockSessionService struct {
	mock.Mock
}

// NewMockSessionService creates a new MockSessionService
func NewMockSessionService() *MockSessionService {
	return &MockSessionService{}
}

func (m *MockSessionService) Create(ctx context.Context, batch *domain.StagedBatch, outcomes []domain.ConversionOutcome) (*domain.Session, error) {
	args := m.Called(ctx, batch, outcomes)
	session, _ := args.Get(0).(*domain.Session)
	return session, args.Error(1)
}

func (m *MockSessionService) Get(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	args := m.Called(ctx, id)
	session, _ := args.Get(0).(*domain.Session)
	return session, args.Error(1)
}

func (m *MockSessionService) Acquire(ctx context.Context, id uuid.UUID) (*domain.Session, func(), error) {
	args := m.Called(ctx, id)
	session, _ := args.Get(0).(*domain.Session)
	release, _ := args.Get(1).(func())
	return session, release, args.Error(2)
}

func (m *MockSessionService) Expire(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSessionService) Purge(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
