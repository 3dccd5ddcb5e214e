package codec

import (
	"fmt"
	"formatwave/internal/core/domain"
	"formatwave/internal/core/port"
	"strings"
)

type formatPair struct {
	from string
	to   string
}

// Options configures the default codecs
type Options struct {
	Runner      CommandRunner
	PDFDPI      int
	JPEGQuality int
	WebPQuality int
}

// Binding is the strategy table mapping a (source, target) pair to a converter
type Binding struct {
	converters map[formatPair]port.Converter
}

// NewBinding creates an empty Binding
func NewBinding() *Binding {
	return &Binding{converters: make(map[formatPair]port.Converter)}
}

// NewDefaultBinding registers every codec shipped with the service
func NewDefaultBinding(opts Options) *Binding {
	run := opts.Runner
	if run == nil {
		run = ExecRunner
	}

	b := NewBinding()

	toPNG := NewImageConverter("png", 0)
	for _, from := range []string{"webp", "jpg", "jpeg", "bmp", "tiff", "tif"} {
		b.Register(from, "png", toPNG)
	}

	toJPEG := NewImageConverter("jpg", opts.JPEGQuality)
	b.Register("png", "jpg", toJPEG)
	b.Register("png", "jpeg", toJPEG)

	b.Register("png", "webp", NewWebPEncoder(run, opts.WebPQuality))
	b.Register("pdf", "png", NewPDFRasterizer(run, opts.PDFDPI))

	return b
}

// Register binds a converter to a format pair, replacing any previous binding
func (b *Binding) Register(from, to string, converter port.Converter) {
	b.converters[formatPair{from: strings.ToLower(from), to: strings.ToLower(to)}] = converter
}

// Resolve returns the converter of a spec format pair
func (b *Binding) Resolve(spec domain.ConversionSpec) (port.Converter, error) {
	pair := formatPair{from: strings.ToLower(spec.SourceFormat), to: strings.ToLower(spec.TargetFormat)}
	converter, ok := b.converters[pair]
	if !ok {
		return nil, fmt.Errorf("%w: %s to %s", domain.ErrUnsupportedConversion, pair.from, pair.to)
	}
	return converter, nil
}
