package handlers

import (
	"context"
	"net/http"

	"github.com/WandileM7/Wednesday-Whatsapp-assistant-sub001/internal/models"
)

type gatewayMonitor interface {
	HealthCheck(ctx context.Context) (bool, error)
	SessionName() string
	KeepAliveActive() bool
}

type GatewayHandler struct {
	gateway gatewayMonitor
}

func NewGatewayHandler(gateway gatewayMonitor) *GatewayHandler {
	return &GatewayHandler{gateway: gateway}
}

// Health always answers 200; an unhealthy gateway is reported in the body.
func (h *GatewayHandler) Health(w http.ResponseWriter, r *http.Request) {
	healthy, err := h.gateway.HealthCheck(r.Context())

	resp := models.GatewayHealth{
		Healthy:   healthy,
		Session:   h.gateway.SessionName(),
		KeepAlive: h.gateway.KeepAliveActive(),
	}
	if err != nil {
		resp.Reason = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}
