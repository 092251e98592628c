package repository

import (
	"context"
	"sync"

	"github.com/WandileM7/Wednesday-Whatsapp-assistant-sub001/internal/models"
)

// MemoryConversationRepo keeps histories in process memory. Everything is
// lost on restart.
type MemoryConversationRepo struct {
	mu            sync.RWMutex
	conversations map[string][]models.ChatMessage
}

func NewMemoryConversationRepo() *MemoryConversationRepo {
	return &MemoryConversationRepo{
		conversations: make(map[string][]models.ChatMessage),
	}
}

func (r *MemoryConversationRepo) List(ctx context.Context, userID string) ([]models.ChatMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	history := r.conversations[userID]
	out := make([]models.ChatMessage, len(history))
	copy(out, history)
	return out, nil
}

func (r *MemoryConversationRepo) Append(ctx context.Context, userID string, msg models.ChatMessage, limit int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	history := append(r.conversations[userID], msg)
	if limit > 0 && len(history) > limit {
		trimmed := make([]models.ChatMessage, limit)
		copy(trimmed, history[len(history)-limit:])
		history = trimmed
	}
	r.conversations[userID] = history
	return nil
}

func (r *MemoryConversationRepo) Delete(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.conversations, userID)
	return nil
}
