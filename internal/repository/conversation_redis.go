package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/WandileM7/Wednesday-Whatsapp-assistant-sub001/internal/models"
)

// RedisConversationRepo stores each history as a Redis list of JSON entries,
// oldest first.
type RedisConversationRepo struct {
	client *redis.Client
}

func NewRedisConversationRepo(client *redis.Client) *RedisConversationRepo {
	return &RedisConversationRepo{client: client}
}

func conversationKey(userID string) string {
	return "conversation:" + userID
}

func (r *RedisConversationRepo) List(ctx context.Context, userID string) ([]models.ChatMessage, error) {
	raw, err := r.client.LRange(ctx, conversationKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read conversation %s: %w", userID, err)
	}

	messages := make([]models.ChatMessage, 0, len(raw))
	for _, item := range raw {
		var msg models.ChatMessage
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			continue
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

func (r *RedisConversationRepo) Append(ctx context.Context, userID string, msg models.ChatMessage, limit int) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	key := conversationKey(userID)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, data)
		if limit > 0 {
			pipe.LTrim(ctx, key, int64(-limit), -1)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to append to conversation %s: %w", userID, err)
	}
	return nil
}

func (r *RedisConversationRepo) Delete(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, conversationKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to clear conversation %s: %w", userID, err)
	}
	return nil
}
