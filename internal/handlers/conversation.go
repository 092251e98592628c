package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/WandileM7/Wednesday-Whatsapp-assistant-sub001/internal/models"
	"github.com/WandileM7/Wednesday-Whatsapp-assistant-sub001/internal/services"
)

const maxContextLimit = 200

type conversationReader interface {
	GetContext(ctx context.Context, userID string, n int) ([]models.ChatMessage, error)
	ClearHistory(ctx context.Context, userID string) error
}

type ConversationHandler struct {
	conversations conversationReader
}

func NewConversationHandler(conversations conversationReader) *ConversationHandler {
	return &ConversationHandler{conversations: conversations}
}

// Get returns the most recent turns for a phone, oldest first.
func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	phone := chi.URLParam(r, "phone")

	limit := services.DefaultContextMessages
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxContextLimit {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "limit must be between 1 and 200", r))
			return
		}
		limit = n
	}

	messages, err := h.conversations.GetContext(r.Context(), phone, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load conversation", r))
		return
	}

	writeJSON(w, http.StatusOK, models.ConversationResponse{Phone: phone, Messages: messages})
}

func (h *ConversationHandler) Clear(w http.ResponseWriter, r *http.Request) {
	phone := chi.URLParam(r, "phone")
	if err := h.conversations.ClearHistory(r.Context(), phone); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to clear conversation", r))
		return
	}
	writeJSON(w, http.StatusOK, statusResp("success", ""))
}
