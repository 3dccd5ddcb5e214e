package codec

import (
	"context"
	"errors"
	"fmt"
	"formatwave/internal/core/domain"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// PageCounter returns the number of pages of a PDF file, failing on unreadable documents
type PageCounter func(path string) (int, error)

// PDFRasterizer renders every page of a PDF to a PNG image with pdftoppm
type PDFRasterizer struct {
	run        CommandRunner
	countPages PageCounter
	dpi        int
}

// NewPDFRasterizer creates a PDFRasterizer. Documents are validated with pdfcpu before rendering.
func NewPDFRasterizer(run CommandRunner, dpi int) *PDFRasterizer {
	return NewPDFRasterizerWithCounter(run, api.PageCountFile, dpi)
}

// NewPDFRasterizerWithCounter creates a PDFRasterizer with a custom page counter
func NewPDFRasterizerWithCounter(run CommandRunner, counter PageCounter, dpi int) *PDFRasterizer {
	if dpi <= 0 {
		dpi = 200
	}
	return &PDFRasterizer{run: run, countPages: counter, dpi: dpi}
}

// Convert writes <stem>_page_NNN.png for every page, in page order
func (p *PDFRasterizer) Convert(ctx context.Context, inputPath string, outputDir string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pageCount, err := p.countPages(inputPath)
	if err != nil {
		return nil, domain.NewConversionError("the file is not a readable PDF document", err)
	}
	if pageCount == 0 {
		return nil, domain.NewConversionError("the PDF document has no pages", nil)
	}

	stem := domain.Stem(inputPath)
	prefix := filepath.Join(outputDir, "raster")

	args := []string{
		"-png",
		"-r", strconv.Itoa(p.dpi),
		inputPath,
		prefix,
	}
	if _, err := p.run(ctx, "pdftoppm", args...); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, domain.NewConversionError("the PDF pages could not be rendered", err)
	}

	pages, err := collectPages(prefix)
	if err != nil {
		return nil, err
	}
	if len(pages) != pageCount {
		return nil, domain.NewConversionError("the PDF pages could not be rendered",
			fmt.Errorf("expected %d pages, pdftoppm produced %d", pageCount, len(pages)))
	}

	outputs := make([]string, 0, len(pages))
	for i, page := range pages {
		target := filepath.Join(outputDir, fmt.Sprintf("%s_page_%03d.png", stem, i+1))
		if err := os.Rename(page.path, target); err != nil {
			return nil, fmt.Errorf("failed to rename page %d: %w", page.number, err)
		}
		outputs = append(outputs, target)
	}

	return outputs, nil
}

type renderedPage struct {
	number int
	path   string
}

// collectPages finds pdftoppm outputs (<prefix>-1.png or zero padded <prefix>-01.png) sorted by page
func collectPages(prefix string) ([]renderedPage, error) {
	matches, err := filepath.Glob(prefix + "-*.png")
	if err != nil {
		return nil, fmt.Errorf("failed to list rendered pages: %w", err)
	}

	pages := make([]renderedPage, 0, len(matches))
	for _, match := range matches {
		suffix := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(match), filepath.Base(prefix)+"-"), ".png")
		number, err := strconv.Atoi(suffix)
		if err != nil {
			continue
		}
		pages = append(pages, renderedPage{number: number, path: match})
	}

	sort.Slice(pages, func(i, j int) bool {
		return pages[i].number < pages[j].number
	})
	return pages, nil
}
