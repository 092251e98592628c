package models

import "time"

const DefaultLocation = "Johannesburg"

// SessionRecord is the per-web-session cache entry.
type SessionRecord struct {
	Phone     string    `json:"phone,omitempty"`
	LastSeen  time.Time `json:"last_seen,omitempty"`
	Location  string    `json:"location,omitempty"`
	GeminiURL *string   `json:"gemini_url,omitempty"`
}

type UpdateLocationRequest struct {
	Location string `json:"location"`
}
