package conversion

import (
	"net/http"
)

// GetSessionV1 returns the results of a live session
func (h *HandlerV1) GetSessionV1(w http.ResponseWriter, r *http.Request) {
	sessionID, err := sessionParam(r, "sessionID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	session, err := h.conversionService.GetSession(r.Context(), sessionID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, newSessionResponse(session))
}
