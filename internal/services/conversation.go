package services

import (
	"context"

	"github.com/WandileM7/Wednesday-Whatsapp-assistant-sub001/internal/models"
)

const (
	DefaultMaxHistory      = 50
	DefaultContextMessages = 10
)

// ConversationStore is the backing storage for histories. Implementations
// live in the repository package.
type ConversationStore interface {
	List(ctx context.Context, userID string) ([]models.ChatMessage, error)
	Append(ctx context.Context, userID string, msg models.ChatMessage, limit int) error
	Delete(ctx context.Context, userID string) error
}

// ConversationManager keeps a bounded, ordered history per user. Oldest
// entries are dropped first once maxHistory is reached.
type ConversationManager struct {
	store      ConversationStore
	maxHistory int
}

func NewConversationManager(store ConversationStore, maxHistory int) *ConversationManager {
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}
	return &ConversationManager{store: store, maxHistory: maxHistory}
}

func (m *ConversationManager) MaxHistory() int {
	return m.maxHistory
}

func (m *ConversationManager) GetHistory(ctx context.Context, userID string) ([]models.ChatMessage, error) {
	history, err := m.store.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	if history == nil {
		history = []models.ChatMessage{}
	}
	return history, nil
}

func (m *ConversationManager) AddMessage(ctx context.Context, userID, role, content string) error {
	return m.store.Append(ctx, userID, models.ChatMessage{Role: role, Content: content}, m.maxHistory)
}

func (m *ConversationManager) ClearHistory(ctx context.Context, userID string) error {
	return m.store.Delete(ctx, userID)
}

// GetContext returns the last n entries in their original order. n <= 0
// means DefaultContextMessages.
func (m *ConversationManager) GetContext(ctx context.Context, userID string, n int) ([]models.ChatMessage, error) {
	if n <= 0 {
		n = DefaultContextMessages
	}
	history, err := m.GetHistory(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(history) > n {
		history = history[len(history)-n:]
	}
	return history, nil
}
