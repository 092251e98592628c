package models

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// ConversationResponse is returned by the operator conversation endpoint.
type ConversationResponse struct {
	Phone    string        `json:"phone"`
	Messages []ChatMessage `json:"messages"`
}
