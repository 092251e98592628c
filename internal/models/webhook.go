package models

// SendRequest is the body of POST /send.
type SendRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// StatusResponse is the envelope used by the webhook and send routes.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type ServiceStatus struct {
	Status   string   `json:"status"`
	Services []string `json:"services"`
	Version  string   `json:"version"`
}

type GatewayHealth struct {
	Healthy   bool   `json:"healthy"`
	Session   string `json:"session"`
	KeepAlive bool   `json:"keepalive_active"`
	Reason    string `json:"reason,omitempty"`
}
