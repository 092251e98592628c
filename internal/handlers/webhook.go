package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/google/uuid"

	"github.com/WandileM7/Wednesday-Whatsapp-assistant-sub001/internal/models"
	"github.com/WandileM7/Wednesday-Whatsapp-assistant-sub001/internal/services"
)

const (
	ServiceVersion    = "2.0.0"
	SessionCookieName = "relay_session"
)

type messageProcessor interface {
	ProcessMessage(ctx context.Context, phone, text string) (string, error)
	InitiateConversation(ctx context.Context, phone string) error
}

type sessionCacher interface {
	CacheUserSession(ctx context.Context, sessionID, phone, geminiURL string) error
	GetCachedSession(ctx context.Context, sessionID string) (*models.SessionRecord, error)
	UpdateSessionLocation(ctx context.Context, sessionID, location string) (*models.SessionRecord, error)
}

type eventPublisher interface {
	Publish(ctx context.Context, event models.RelayEvent)
}

type WebhookHandler struct {
	assistant messageProcessor
	sender    services.MessageSender
	sessions  sessionCacher
	events    eventPublisher
	services  []string
}

func NewWebhookHandler(assistant messageProcessor, sender services.MessageSender, sessions sessionCacher, events eventPublisher, serviceNames []string) *WebhookHandler {
	return &WebhookHandler{
		assistant: assistant,
		sender:    sender,
		sessions:  sessions,
		events:    events,
		services:  serviceNames,
	}
}

func (h *WebhookHandler) Status(w http.ResponseWriter, r *http.Request) {
	names := h.services
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, models.ServiceStatus{
		Status:   "online",
		Services: names,
		Version:  ServiceVersion,
	})
}

func (h *WebhookHandler) WebhookReady(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "online", "webhook": "ready"})
}

// Receive handles an inbound WhatsApp event: the message fields may sit
// under "payload" or at the top level of the body.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("Webhook panic: %v\n%s", rec, debug.Stack())
			writeJSON(w, http.StatusInternalServerError, statusResp("error", fmt.Sprint(rec)))
		}
	}()

	var data map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		writeJSON(w, http.StatusBadRequest, statusResp("error", "invalid JSON body"))
		return
	}

	payload := data
	if inner, ok := data["payload"].(map[string]interface{}); ok {
		payload = inner
	}

	text := firstString(payload, "body", "text", "message")
	phone := firstString(payload, "chatId", "from")
	if text == "" || phone == "" || truthy(payload["fromMe"]) {
		writeJSON(w, http.StatusOK, statusResp("ignored", ""))
		return
	}

	ctx := r.Context()
	h.publish(ctx, models.EventMessageReceived, phone, text, nil)

	sessionID := ensureSessionID(w, r)
	if err := h.sessions.CacheUserSession(ctx, sessionID, phone, ""); err != nil {
		log.Printf("Failed to cache session for %s: %v", phone, err)
	}

	reply, err := h.assistant.ProcessMessage(ctx, phone, text)
	if err != nil {
		log.Printf("Failed to process message from %s: %v", phone, err)
		h.publish(ctx, models.EventReplyFailed, phone, "", err)
		writeJSON(w, http.StatusInternalServerError, statusResp("error", err.Error()))
		return
	}

	if err := h.sender.SendMessage(ctx, phone, reply); err != nil {
		log.Printf("Failed to send reply to %s: %v", phone, err)
		h.publish(ctx, models.EventReplyFailed, phone, reply, err)
		writeJSON(w, http.StatusInternalServerError, statusResp("error", "Failed to send message"))
		return
	}

	h.publish(ctx, models.EventReplySent, phone, reply, nil)
	writeJSON(w, http.StatusOK, statusResp("ok", ""))
}

func (h *WebhookHandler) publish(ctx context.Context, eventType, phone, text string, err error) {
	if h.events == nil {
		return
	}
	event := models.RelayEvent{Type: eventType, Phone: phone, Text: text}
	if err != nil {
		event.Error = err.Error()
	}
	h.events.Publish(ctx, event)
}

// ensureSessionID returns the caller's session id, issuing a new cookie
// when there is none.
func ensureSessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(SessionCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(services.DefaultSessionLifetime.Seconds()),
	})
	return id
}

func firstString(m map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if s, ok := m[key].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

func truthy(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != "" && !strings.EqualFold(t, "false")
	case float64:
		return t != 0
	default:
		return true
	}
}
