package codec

import (
	"context"
	"fmt"
	"formatwave/internal/core/domain"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ImageConverter re-encodes any decodable raster image to PNG or JPEG
type ImageConverter struct {
	target      string
	jpegQuality int
}

// NewImageConverter creates an ImageConverter for target ("png", "jpg" or "jpeg")
func NewImageConverter(target string, jpegQuality int) *ImageConverter {
	if jpegQuality <= 0 || jpegQuality > 100 {
		jpegQuality = 95
	}
	return &ImageConverter{target: target, jpegQuality: jpegQuality}
}

// Convert decodes inputPath and writes <stem>.<target> in outputDir
func (c *ImageConverter) Convert(ctx context.Context, inputPath string, outputDir string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	in, err := os.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	defer in.Close()

	img, _, err := image.Decode(in)
	if err != nil {
		return nil, domain.NewConversionError("the file could not be read as a valid image", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	outputPath := filepath.Join(outputDir, domain.Stem(inputPath)+"."+c.target)
	out, err := os.Create(outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create output: %w", err)
	}

	encodeErr := c.encode(out, img)
	closeErr := out.Close()
	if encodeErr != nil || closeErr != nil {
		_ = os.Remove(outputPath)
		if encodeErr != nil {
			return nil, domain.NewConversionError("the image could not be encoded", encodeErr)
		}
		return nil, fmt.Errorf("failed to write output: %w", closeErr)
	}

	return []string{outputPath}, nil
}

func (c *ImageConverter) encode(w io.Writer, img image.Image) error {
	switch c.target {
	case "png":
		encoder := png.Encoder{CompressionLevel: png.BestCompression}
		return encoder.Encode(w, img)
	case "jpg", "jpeg":
		return jpeg.Encode(w, flatten(img), &jpeg.Options{Quality: c.jpegQuality})
	default:
		return fmt.Errorf("unsupported target format %s", c.target)
	}
}

// flatten paints img over a white background, JPEG has no alpha channel
func flatten(img image.Image) image.Image {
	bounds := img.Bounds()
	dst := image.NewRGBA(bounds)
	draw.Draw(dst, bounds, image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, bounds, img, bounds.Min, draw.Over)
	return dst
}
