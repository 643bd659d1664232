package repository

import (
	"context"
	"database/sql"
)

// HistoryRepository appends played-quiz references to a user's record. The
// coordinator treats this as best-effort bookkeeping: failures are logged by
// the caller and never undo in-memory session state.
type HistoryRepository struct {
	db *sql.DB
}

func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

func (r *HistoryRepository) AppendPlayedQuiz(ctx context.Context, userID, quizID string) error {
	query := `
		INSERT INTO user_quiz_history (user_id, quiz_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, quiz_id) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query, userID, quizID)
	return err
}
