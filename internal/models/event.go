package models

import "time"

const (
	EventMessageReceived       = "message_received"
	EventReplySent             = "reply_sent"
	EventReplyFailed           = "reply_failed"
	EventConversationInitiated = "conversation_initiated"
)

// RelayEvent is pushed to operators watching the live feed.
type RelayEvent struct {
	Type  string    `json:"type"`
	Phone string    `json:"phone"`
	Text  string    `json:"text,omitempty"`
	Error string    `json:"error,omitempty"`
	At    time.Time `json:"at"`
}
