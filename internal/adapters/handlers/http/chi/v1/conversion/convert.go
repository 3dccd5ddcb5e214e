package conversion

import (
	"errors"
	"formatwave/internal/core/domain"
	"mime/multipart"
	"net/http"
	"strings"
)

// ConvertV1 converts a multipart batch (conversion_id, files) into a session
func (h *HandlerV1) ConvertV1(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.maxMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.writeJSON(w, http.StatusRequestEntityTooLarge, V1ErrorResponse{Error: "request body too large"})
			return
		}
		h.logger.Warn("invalid multipart body", "error", err)
		h.writeJSON(w, http.StatusBadRequest, V1ErrorResponse{Error: "expected a multipart/form-data body"})
		return
	}
	defer r.MultipartForm.RemoveAll()

	conversionID := strings.TrimSpace(r.FormValue("conversion_id"))
	if conversionID == "" {
		h.writeJSON(w, http.StatusBadRequest, V1ErrorResponse{Error: "conversion_id is required"})
		return
	}

	headers := r.MultipartForm.File["files"]
	files := make([]domain.UploadedFile, 0, len(headers))
	for _, header := range headers {
		f, err := header.Open()
		if err != nil {
			h.logger.Error("error opening uploaded part", "filename", header.Filename, "error", err)
			h.writeJSON(w, http.StatusBadRequest, V1ErrorResponse{Error: "an uploaded file could not be read"})
			return
		}
		defer func(f multipart.File) { _ = f.Close() }(f)

		files = append(files, domain.UploadedFile{
			Filename: header.Filename,
			Size:     header.Size,
			Content:  f,
		})
	}

	session, err := h.conversionService.Convert(r.Context(), conversionID, files)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, newSessionResponse(session))
}
