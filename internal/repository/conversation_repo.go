package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/WandileM7/Wednesday-Whatsapp-assistant-sub001/internal/models"
)

type ConversationRepo struct {
	pool *pgxpool.Pool
}

func NewConversationRepo(pool *pgxpool.Pool) *ConversationRepo {
	return &ConversationRepo{pool: pool}
}

func (r *ConversationRepo) List(ctx context.Context, userID string) ([]models.ChatMessage, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT role, content
		FROM conversation_messages
		WHERE user_id = $1
		ORDER BY id ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []models.ChatMessage{}
	for rows.Next() {
		var msg models.ChatMessage
		if err := rows.Scan(&msg.Role, &msg.Content); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// Append inserts the message and prunes everything older than the newest
// limit rows in the same transaction. Appends for one user are serialized
// with a transaction-scoped advisory lock so concurrent prunes cannot miss
// each other's inserts.
func (r *ConversationRepo) Append(ctx context.Context, userID string, msg models.ChatMessage, limit int) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, userID); err != nil {
			return err
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO conversation_messages (user_id, role, content)
			VALUES ($1, $2, $3)
		`, userID, msg.Role, msg.Content)
		if err != nil {
			return err
		}

		if limit <= 0 {
			return nil
		}

		_, err = tx.Exec(ctx, `
			DELETE FROM conversation_messages
			WHERE user_id = $1
			  AND id NOT IN (
				SELECT id FROM conversation_messages
				WHERE user_id = $1
				ORDER BY id DESC
				LIMIT $2
			  )
		`, userID, limit)
		return err
	})
}

func (r *ConversationRepo) Delete(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM conversation_messages WHERE user_id = $1`, userID)
	return err
}
