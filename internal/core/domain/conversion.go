package domain

import (
	"path/filepath"
	"slices"
	"strings"
)

// Arity tells how many artifacts a single input produces
type Arity string

const (
	ArityPerFile Arity = "per_file"
	ArityPerPage Arity = "per_page"
)

// ConversionSpec represents a supported source to target transformation
type ConversionSpec struct {
	ID               string
	From             string
	To               string
	SourceFormat     string
	TargetFormat     string
	SourceExtensions []string
	TargetExtension  string
	Icon             string
	Description      string
	Arity            Arity
}

// Accepts reports whether filename has one of the source extensions, case-insensitively.
func (c ConversionSpec) Accepts(filename string) bool {
	return slices.Contains(c.SourceExtensions, Extension(filename))
}

// Extension returns the lower-cased extension of filename without the leading dot
func Extension(filename string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
}

// Stem returns the base name of filename without its extension
func Stem(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// previewableExtensions are the output types browsers render directly
var previewableExtensions = map[string]struct{}{
	"png":  {},
	"jpg":  {},
	"jpeg": {},
	"webp": {},
	"bmp":  {},
	"gif":  {},
	"svg":  {},
}

// IsPreviewable reports whether an output extension can be rendered inline by a browser
func IsPreviewable(ext string) bool {
	_, ok := previewableExtensions[strings.TrimPrefix(strings.ToLower(ext), ".")]
	return ok
}

var contentTypes = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"webp": "image/webp",
	"bmp":  "image/bmp",
	"gif":  "image/gif",
	"svg":  "image/svg+xml",
	"tif":  "image/tiff",
	"tiff": "image/tiff",
	"pdf":  "application/pdf",
}

// ContentTypeFor returns the MIME type of an extension, octet-stream when unknown
func ContentTypeFor(ext string) string {
	if ct, ok := contentTypes[strings.TrimPrefix(strings.ToLower(ext), ".")]; ok {
		return ct
	}
	return "application/octet-stream"
}
