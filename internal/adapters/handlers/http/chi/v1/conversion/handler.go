package conversion

import (
	"formatwave/internal/core/port"
	"log/slog"

	"github.com/go-chi/chi/v5"
)

// defaultMaxMemory is the part of a multipart body kept in memory, the rest spills to temp files
const defaultMaxMemory = 32 << 20

// HandlerV1 is the handler for conversion and session routes
type HandlerV1 struct {
	conversionService port.ConversionService
	packager          port.ArtifactPackager
	maxMemory         int64
	logger            *slog.Logger
}

// NewConversionHandlerV1 creates HandlerV1
func NewConversionHandlerV1(service port.ConversionService, packager port.ArtifactPackager, logger *slog.Logger) *HandlerV1 {
	return &HandlerV1{
		conversionService: service,
		packager:          packager,
		maxMemory:         defaultMaxMemory,
		logger:            logger,
	}
}

// Routes exposes handler routes
func (h *HandlerV1) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/conversions", h.ListConversionsV1)
	router.Post("/convert", h.ConvertV1)
	router.Get("/sessions/{sessionID}", h.GetSessionV1)
	router.Get("/download/{sessionID}/{artifactID}", h.DownloadV1)
	router.Get("/preview/{sessionID}/{artifactID}", h.PreviewV1)
	router.Get("/download-all/{sessionID}", h.DownloadAllV1)

	return router
}
