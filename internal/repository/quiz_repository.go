package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"live-service/internal/models"
)

// QuizRepository reads quiz documents from the durable store. The
// coordinator only ever looks quizzes up; creation and editing belong to the
// quiz service.
type QuizRepository struct {
	db *sql.DB
}

func NewQuizRepository(db *sql.DB) *QuizRepository {
	return &QuizRepository{db: db}
}

// FindByInviteCode returns the quiz document with its embedded questions, or
// nil when no quiz matches the code.
func (r *QuizRepository) FindByInviteCode(ctx context.Context, inviteCode string) (*models.QuizDocument, error) {
	query := `
		SELECT id, invite_code, created_by, num_questions, questions, created_at
		FROM quizzes
		WHERE invite_code = $1
	`
	doc := &models.QuizDocument{}
	var questionsJSON []byte
	err := r.db.QueryRowContext(ctx, query, inviteCode).Scan(
		&doc.ID,
		&doc.InviteCode,
		&doc.CreatedBy,
		&doc.NumQuestions,
		&questionsJSON,
		&doc.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(questionsJSON, &doc.Questions); err != nil {
		return nil, fmt.Errorf("failed to decode questions for quiz %s: %w", doc.ID, err)
	}
	return doc, nil
}
