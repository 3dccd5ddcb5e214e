package packager

import (
	"context"
	"formatwave/internal/core/port"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockPackagerService is a mock implementation of port.ArtifactPackager
type MockPackagerService struct {
	mock.Mock
}

// NewMockPackagerService creates a new MockPackagerService
func NewMockPackagerService() *MockPackagerService {
	return &MockPackagerService{}
}

func (m *MockPackagerService) OpenArtifact(ctx context.Context, sessionID, artifactID uuid.UUID) (*port.ArtifactStream, error) {
	args := m.Called(ctx, sessionID, artifactID)
	stream, _ := args.Get(0).(*port.ArtifactStream)
	return stream, args.Error(1)
}

func (m *MockPackagerService) OpenPreview(ctx context.Context, sessionID, artifactID uuid.UUID) (*port.ArtifactStream, error) {
	args := m.Called(ctx, sessionID, artifactID)
	stream, _ := args.Get(0).(*port.ArtifactStream)
	return stream, args.Error(1)
}

func (m *MockPackagerService) OpenBundle(ctx context.Context, sessionID uuid.UUID) (port.BundleStream, error) {
	args := m.Called(ctx, sessionID)
	stream, _ := args.Get(0).(port.BundleStream)
	return stream, args.Error(1)
}
