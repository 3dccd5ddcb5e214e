package registry

import (
	"formatwave/internal/core/domain"
	"formatwave/internal/core/port"

	"github.com/stretchr/testify/mock"
)

// MockConversionRegistry is a mock implementation of port.ConversionRegistry
type MockConversionRegistry struct {
	mock.Mock
}

// NewMockConversionRegistry creates a new MockConversionRegistry
func NewMockConversionRegistry() *MockConversionRegistry {
	return &MockConversionRegistry{}
}

func (m *MockConversionRegistry) List() []domain.ConversionSpec {
	args := m.Called()
	return args.Get(0).([]domain.ConversionSpec)
}

func (m *MockConversionRegistry) Lookup(id string) (domain.ConversionSpec, error) {
	args := m.Called(id)
	return args.Get(0).(domain.ConversionSpec), args.Error(1)
}

func (m *MockConversionRegistry) Converter(id string) (port.Converter, error) {
	args := m.Called(id)
	converter, _ := args.Get(0).(port.Converter)
	return converter, args.Error(1)
}
