package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/WandileM7/Wednesday-Whatsapp-assistant-sub001/internal/models"
)

type SessionHandler struct {
	sessions sessionCacher
}

func NewSessionHandler(sessions sessionCacher) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID := ensureSessionID(w, r)
	record, err := h.sessions.GetCachedSession(r.Context(), sessionID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load session", r))
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *SessionHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	location := strings.TrimSpace(req.Location)
	if location == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Location is required", r))
		return
	}

	sessionID := ensureSessionID(w, r)
	record, err := h.sessions.UpdateSessionLocation(r.Context(), sessionID, location)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to update session", r))
		return
	}
	writeJSON(w, http.StatusOK, record)
}
