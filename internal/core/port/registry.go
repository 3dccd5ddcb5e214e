package port

import (
	"context"
	"formatwave/internal/core/domain"
)

// Converter is the seam to an external codec. It converts the file at inputPath,
// writes its outputs in outputDir and returns their paths in page order.
type Converter interface {
	Convert(ctx context.Context, inputPath string, outputDir string) ([]string, error)
}

// ConverterFunc adapts a function to Converter
type ConverterFunc func(ctx context.Context, inputPath string, outputDir string) ([]string, error)

// Convert calls f
func (f ConverterFunc) Convert(ctx context.Context, inputPath string, outputDir string) ([]string, error) {
	return f(ctx, inputPath, outputDir)
}

// ConverterBinding maps a conversion spec to the converter handling its format pair
type ConverterBinding interface {
	Resolve(spec domain.ConversionSpec) (Converter, error)
}

// ConversionRegistry is the read-only catalog of supported conversions
type ConversionRegistry interface {
	List() []domain.ConversionSpec
	Lookup(id string) (domain.ConversionSpec, error)
	Converter(id string) (Converter, error)
}
