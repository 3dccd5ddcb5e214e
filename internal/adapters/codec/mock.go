package codec

import (
	"context"
	"formatwave/internal/core/domain"
	"formatwave/internal/core/port"

	"github.com/stretchr/testify/mock"
)

// MockConverter is a mock implementation of port.Converter
type MockConverter struct {
	mock.Mock
}

// NewMockConverter creates a new MockConverter
func NewMockConverter() *MockConverter {
	return &MockConverter{}
}

func (m *MockConverter) Convert(ctx context.Context, inputPath string, outputDir string) ([]string, error) {
	args := m.Called(ctx, inputPath, outputDir)
	outputs, _ := args.Get(0).([]string)
	return outputs, args.Error(1)
}

// MockBinding is a mock implementation of port.ConverterBinding
type MockBinding struct {
	mock.Mock
}

// NewMockBinding creates a new MockBinding
func NewMockBinding() *MockBinding {
	return &MockBinding{}
}

func (m *MockBinding) Resolve(spec domain.ConversionSpec) (port.Converter, error) {
	args := m.Called(spec)
	converter, _ := args.Get(0).(port.Converter)
	return converter, args.Error(1)
}
