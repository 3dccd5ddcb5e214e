package conversion

import (
	"encoding/json"
	"errors"
	"formatwave/internal/core/domain"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// V1ErrorResponse is the body of every failed request
type V1ErrorResponse struct {
	Error  string              `json:"error"`
	Errors []V1FailureResponse `json:"errors,omitempty"`
}

// V1FailureResponse is a file that could not be converted
type V1FailureResponse struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

// V1ResultResponse is a converted file
type V1ResultResponse struct {
	ID            uuid.UUID `json:"id"`
	OriginalName  string    `json:"original_name"`
	ConvertedName string    `json:"converted_name"`
	Size          int64     `json:"size"`
	SizeHuman     string    `json:"size_human"`
	Previewable   bool      `json:"previewable"`
	PreviewURL    string    `json:"preview_url,omitempty"`
	DownloadURL   string    `json:"download_url"`
}

// V1SessionResponse is the outcome of a batch conversion
type V1SessionResponse struct {
	SessionID      uuid.UUID           `json:"session_id"`
	ConversionID   string              `json:"conversion_id"`
	Results        []V1ResultResponse  `json:"results"`
	Errors         []V1FailureResponse `json:"errors"`
	TotalConverted int                 `json:"total_converted"`
	TotalErrors    int                 `json:"total_errors"`
	ExpiresAt      time.Time           `json:"expires_at"`
	DownloadAllURL string              `json:"download_all_url,omitempty"`
}

func newSessionResponse(session *domain.Session) V1SessionResponse {
	results := make([]V1ResultResponse, 0, len(session.Artifacts))
	for _, artifact := range session.Artifacts {
		results = append(results, V1ResultResponse{
			ID:            artifact.ID,
			OriginalName:  artifact.OriginalName,
			ConvertedName: artifact.ConvertedName,
			Size:          artifact.SizeBytes,
			SizeHuman:     artifact.SizeHuman,
			Previewable:   artifact.Previewable,
			PreviewURL:    artifact.PreviewURL,
			DownloadURL:   artifact.DownloadURL,
		})
	}

	resp := V1SessionResponse{
		SessionID:      session.ID,
		ConversionID:   session.ConversionID,
		Results:        results,
		Errors:         newFailureResponses(session.Failures),
		TotalConverted: session.TotalConverted,
		TotalErrors:    len(session.Failures),
		ExpiresAt:      session.ExpiresAt,
	}
	if session.TotalConverted > 0 {
		resp.DownloadAllURL = domain.DownloadAllPath(session.ID)
	}
	return resp
}

func newFailureResponses(failures []domain.FileFailure) []V1FailureResponse {
	resp := make([]V1FailureResponse, 0, len(failures))
	for _, failure := range failures {
		resp = append(resp, V1FailureResponse{Filename: failure.Filename, Error: failure.Reason})
	}
	return resp
}

func (h *HandlerV1) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("error encoding response", "error", err)
	}
}

// writeError maps service errors to HTTP statuses, internal details only go to the logs
func (h *HandlerV1) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var rejected *domain.RejectedBatchError
	switch {
	case errors.As(err, &rejected):
		h.writeJSON(w, http.StatusBadRequest, V1ErrorResponse{
			Error:  "none of the uploaded files can be converted",
			Errors: newFailureResponses(rejected.Failures),
		})
	case errors.Is(err, domain.ErrUnknownConversion),
		errors.Is(err, domain.ErrUnsupportedConversion),
		errors.Is(err, domain.ErrNoFiles):
		h.writeJSON(w, http.StatusBadRequest, V1ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrCapacityExceeded):
		h.writeJSON(w, http.StatusRequestEntityTooLarge, V1ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrSessionExpired):
		h.writeJSON(w, http.StatusGone, V1ErrorResponse{Error: "session expired"})
	case errors.Is(err, domain.ErrSessionNotFound):
		h.writeJSON(w, http.StatusNotFound, V1ErrorResponse{Error: "session not found"})
	case errors.Is(err, domain.ErrArtifactNotFound), errors.Is(err, domain.ErrObjectNotFound):
		h.writeJSON(w, http.StatusNotFound, V1ErrorResponse{Error: "file not found"})
	case errors.Is(err, domain.ErrEmptySession):
		h.writeJSON(w, http.StatusConflict, V1ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrNotPreviewable):
		h.writeJSON(w, http.StatusUnsupportedMediaType, V1ErrorResponse{Error: "this file type cannot be previewed"})
	case errors.Is(err, domain.ErrStorage):
		h.logger.Error("storage failure", "path", r.URL.Path, "error", err)
		h.writeJSON(w, http.StatusInsufficientStorage, V1ErrorResponse{Error: "storage unavailable, please retry later"})
	default:
		h.logger.Error("unexpected error", "path", r.URL.Path, "error", err)
		h.writeJSON(w, http.StatusInternalServerError, V1ErrorResponse{Error: "internal server error"})
	}
}

// sessionParam parses a path uuid, an unparsable id cannot name an existing session
func sessionParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, domain.ErrSessionNotFound
	}
	return id, nil
}
