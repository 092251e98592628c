package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/WandileM7/Wednesday-Whatsapp-assistant-sub001/internal/handlers"
	"github.com/WandileM7/Wednesday-Whatsapp-assistant-sub001/internal/middleware"
	"github.com/WandileM7/Wednesday-Whatsapp-assistant-sub001/internal/websocket"
)

func New(
	adminAuth *middleware.AdminAuth,
	sendLimiter *middleware.RateLimiter,
	webhookHandler *handlers.WebhookHandler,
	conversationHandler *handlers.ConversationHandler,
	gatewayHandler *handlers.GatewayHandler,
	sessionHandler *handlers.SessionHandler,
	wsHub *websocket.Hub,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.RequestID)

	r.Get("/", webhookHandler.Status)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// ──── WhatsApp webhook (public, called by the gateway) ────
	r.Get("/webhook", webhookHandler.WebhookReady)
	r.Post("/webhook", webhookHandler.Receive)

	// ──── Web session ────
	r.Get("/session", sessionHandler.Get)
	r.Put("/session/location", sessionHandler.UpdateLocation)

	// ──── Operator routes ────
	r.Group(func(r chi.Router) {
		r.Use(adminAuth.Middleware)

		r.With(sendLimiter.Middleware).Post("/send", webhookHandler.Send)

		r.Get("/conversations/{phone}", conversationHandler.Get)
		r.Delete("/conversations/{phone}", conversationHandler.Clear)

		r.Get("/gateway/health", gatewayHandler.Health)
	})

	// WebSocket authenticates with ?token= since browsers cannot set headers
	r.Get("/ws", wsHub.HandleWebSocket)

	return r
}
