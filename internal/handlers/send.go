package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/WandileM7/Wednesday-Whatsapp-assistant-sub001/internal/models"
)

// Send delivers an operator message, or starts a generated conversation when
// no message is given.
func (h *WebhookHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req models.SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, statusResp("error", "invalid JSON body"))
		return
	}

	phone := strings.TrimSpace(req.Phone)
	if phone == "" {
		writeJSON(w, http.StatusBadRequest, statusResp("error", "Phone required"))
		return
	}

	ctx := r.Context()
	if req.Message != "" {
		if err := h.sender.SendMessage(ctx, phone, req.Message); err != nil {
			log.Printf("Failed to send message to %s: %v", phone, err)
			h.publish(ctx, models.EventReplyFailed, phone, req.Message, err)
			writeJSON(w, http.StatusInternalServerError, statusResp("error", err.Error()))
			return
		}
		h.publish(ctx, models.EventReplySent, phone, req.Message, nil)
		writeJSON(w, http.StatusOK, statusResp("success", ""))
		return
	}

	if err := h.assistant.InitiateConversation(ctx, phone); err != nil {
		log.Printf("Failed to initiate conversation with %s: %v", phone, err)
		h.publish(ctx, models.EventReplyFailed, phone, "", err)
		writeJSON(w, http.StatusInternalServerError, statusResp("error", err.Error()))
		return
	}
	h.publish(ctx, models.EventConversationInitiated, phone, "", nil)
	writeJSON(w, http.StatusOK, statusResp("success", ""))
}
