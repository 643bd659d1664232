package repository

import (
	"context"
	"database/sql"

	"live-service/internal/models"
)

// ChatRepository archives relayed room messages. Like history updates, the
// archive is best-effort: the live relay already happened by the time the
// insert runs.
type ChatRepository struct {
	db *sql.DB
}

func NewChatRepository(db *sql.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

func (r *ChatRepository) SaveMessage(ctx context.Context, msg *models.ChatMessage) error {
	query := `
		INSERT INTO chat_messages (quiz_id, sender_id, username, message, message_type, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		msg.QuizID,
		msg.SenderID,
		msg.Username,
		msg.Message,
		msg.MessageType,
		msg.SentAt,
	)
	return err
}
