package conversion

import (
	"net/http"
)

// DownloadAllV1 streams every artifact of a session as a zip archive
func (h *HandlerV1) DownloadAllV1(w http.ResponseWriter, r *http.Request) {
	sessionID, err := sessionParam(r, "sessionID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	bundle, err := h.packager.OpenBundle(r.Context(), sessionID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer bundle.Close()

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", contentDisposition("attachment", bundle.Filename()))

	written, err := bundle.WriteTo(w)
	if err == nil {
		return
	}
	if written == 0 {
		w.Header().Del("Content-Disposition")
		h.writeError(w, r, err)
		return
	}
	h.logger.Warn("bundle stream interrupted", "session_id", sessionID, "written", written, "error", err)
}
