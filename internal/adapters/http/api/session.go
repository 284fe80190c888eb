package api

import (
	"net/http"
)

// SessionHandler reports the live game.
type SessionHandler struct {
	source SessionSource
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(source SessionSource) *SessionHandler {
	return &SessionHandler{source: source}
}

// HandleGetSession handles GET /session.
func (h *SessionHandler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.source.Status())
}
