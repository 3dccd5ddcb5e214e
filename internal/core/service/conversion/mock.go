package conversion

import (
	"context"
	"formatwave/internal/core/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockConversionService is a mock implementation of port.ConversionService
type MockConversionService struct {
	mock.Mock
}

// NewMockConversionService creates a new MockConversionService
func NewMockConversionService() *MockConversionService {
	return &MockConversionService{}
}

func (m *MockConversionService) ListConversions() []domain.ConversionSpec {
	args := m.Called()
	return args.Get(0).([]domain.ConversionSpec)
}

func (m *MockConversionService) Convert(ctx context.Context, conversionID string, files []domain.UploadedFile) (*domain.Session, error) {
	args := m.Called(ctx, conversionID, files)
	session, _ := args.Get(0).(*domain.Session)
	return session, args.Error(1)
}

func (m *MockConversionService) GetSession(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	args := m.Called(ctx, id)
	session, _ := args.Get(0).(*domain.Session)
	return session, args.Error(1)
}
