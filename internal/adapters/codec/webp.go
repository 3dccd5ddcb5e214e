package codec

import (
	"context"
	"errors"
	"formatwave/internal/core/domain"
	"path/filepath"
	"strconv"
)

// WebPEncoder converts images to WebP with the external cwebp tool
type WebPEncoder struct {
	run     CommandRunner
	quality int
	method  int
}

// NewWebPEncoder creates a WebPEncoder
func NewWebPEncoder(run CommandRunner, quality int) *WebPEncoder {
	if quality <= 0 || quality > 100 {
		quality = 90
	}
	return &WebPEncoder{run: run, quality: quality, method: 6}
}

// Convert writes <stem>.webp in outputDir
func (e *WebPEncoder) Convert(ctx context.Context, inputPath string, outputDir string) ([]string, error) {
	outputPath := filepath.Join(outputDir, domain.Stem(inputPath)+".webp")

	args := []string{
		"-quiet",
		"-q", strconv.Itoa(e.quality),
		"-m", strconv.Itoa(e.method),
		inputPath,
		"-o", outputPath,
	}
	if _, err := e.run(ctx, "cwebp", args...); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, domain.NewConversionError("the image could not be encoded as WebP", err)
	}

	return []string{outputPath}, nil
}
