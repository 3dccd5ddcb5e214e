package registry

import "formatwave/internal/core/domain"

// DefaultCatalog is the list of conversions offered by the service, in display order
func DefaultCatalog() []domain.ConversionSpec {
	return []domain.ConversionSpec{
		{
			ID: "pdf-to-png", From: "PDF", To: "PNG",
			SourceFormat: "pdf", TargetFormat: "png",
			SourceExtensions: []string{"pdf"}, TargetExtension: "png",
			Icon: "📄", Description: "Convert PDF pages to PNG images",
			Arity: domain.ArityPerPage,
		},
		{
			ID: "webp-to-png", From: "WebP", To: "PNG",
			SourceFormat: "webp", TargetFormat: "png",
			SourceExtensions: []string{"webp"}, TargetExtension: "png",
			Icon: "🖼️", Description: "Convert WebP images to PNG format",
			Arity: domain.ArityPerFile,
		},
		{
			ID: "png-to-webp", From: "PNG", To: "WebP",
			SourceFormat: "png", TargetFormat: "webp",
			SourceExtensions: []string{"png"}, TargetExtension: "webp",
			Icon: "🔄", Description: "Convert PNG images to WebP format",
			Arity: domain.ArityPerFile,
		},
		{
			ID: "png-to-jpg", From: "PNG", To: "JPG",
			SourceFormat: "png", TargetFormat: "jpg",
			SourceExtensions: []string{"png"}, TargetExtension: "jpg",
			Icon: "🎨", Description: "Convert PNG images to JPG format",
			Arity: domain.ArityPerFile,
		},
		{
			ID: "jpg-to-png", From: "JPG", To: "PNG",
			SourceFormat: "jpg", TargetFormat: "png",
			SourceExtensions: []string{"jpg", "jpeg"}, TargetExtension: "png",
			Icon: "✨", Description: "Convert JPG images to PNG format",
			Arity: domain.ArityPerFile,
		},
		{
			ID: "bmp-to-png", From: "BMP", To: "PNG",
			SourceFormat: "bmp", TargetFormat: "png",
			SourceExtensions: []string{"bmp"}, TargetExtension: "png",
			Icon: "🗺️", Description: "Convert BMP images to PNG format",
			Arity: domain.ArityPerFile,
		},
		{
			ID: "tiff-to-png", From: "TIFF", To: "PNG",
			SourceFormat: "tiff", TargetFormat: "png",
			SourceExtensions: []string{"tiff", "tif"}, TargetExtension: "png",
			Icon: "📷", Description: "Convert TIFF images to PNG format",
			Arity: domain.ArityPerFile,
		},
	}
}
