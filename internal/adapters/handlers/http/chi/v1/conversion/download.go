package conversion

import (
	"context"
	"formatwave/internal/core/domain"
	"formatwave/internal/core/port"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type openFunc func(ctx context.Context, sessionID, artifactID uuid.UUID) (*port.ArtifactStream, error)

// DownloadV1 streams one artifact as an attachment
func (h *HandlerV1) DownloadV1(w http.ResponseWriter, r *http.Request) {
	h.serveArtifact(w, r, h.packager.OpenArtifact, "attachment")
}

// PreviewV1 streams one previewable artifact inline
func (h *HandlerV1) PreviewV1(w http.ResponseWriter, r *http.Request) {
	h.serveArtifact(w, r, h.packager.OpenPreview, "inline")
}

func (h *HandlerV1) serveArtifact(w http.ResponseWriter, r *http.Request, open openFunc, disposition string) {
	sessionID, err := sessionParam(r, "sessionID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	artifactID, err := uuid.Parse(chi.URLParam(r, "artifactID"))
	if err != nil {
		h.writeError(w, r, domain.ErrArtifactNotFound)
		return
	}

	stream, err := open(r.Context(), sessionID, artifactID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer stream.Close()

	w.Header().Set("Content-Type", stream.Artifact.ContentType)
	w.Header().Set("Content-Disposition", contentDisposition(disposition, stream.Artifact.ConvertedName))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	if stream.Artifact.SizeBytes > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(stream.Artifact.SizeBytes, 10))
	}
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, stream); err != nil {
		h.logger.Warn("artifact stream interrupted",
			"session_id", sessionID,
			"artifact_id", artifactID,
			"error", err,
		)
	}
}

// contentDisposition quotes the filename and falls back to RFC 2231 encoding for non ASCII names
func contentDisposition(disposition, filename string) string {
	if value := mime.FormatMediaType(disposition, map[string]string{"filename": filename}); value != "" {
		return value
	}
	return disposition
}
