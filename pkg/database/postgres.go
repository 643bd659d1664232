package database

import (
	"context"
	"database/sql"
	"fmt"

	"live-service/config"

	_ "github.com/lib/pq"
)

type PostgresClient struct {
	db     *sql.DB
	config *config.DBConfig
}

func NewPostgresClient(cfg *config.DBConfig) (*PostgresClient, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresClient{
		db:     db,
		config: cfg,
	}, nil
}

func (c *PostgresClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func (c *PostgresClient) GetDB() *sql.DB {
	return c.db
}

func (c *PostgresClient) InitSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS quizzes (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			invite_code VARCHAR(64) NOT NULL UNIQUE,
			created_by VARCHAR(255) NOT NULL,
			num_questions INTEGER NOT NULL DEFAULT 0,
			questions JSONB NOT NULL DEFAULT '[]',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_quizzes_invite_code ON quizzes(invite_code);

		CREATE TABLE IF NOT EXISTS user_quiz_history (
			user_id VARCHAR(255) NOT NULL,
			quiz_id UUID NOT NULL,
			played_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (user_id, quiz_id)
		);
		CREATE INDEX IF NOT EXISTS idx_user_quiz_history_user_id ON user_quiz_history(user_id);

		CREATE TABLE IF NOT EXISTS chat_messages (
			id BIGSERIAL PRIMARY KEY,
			quiz_id VARCHAR(64) NOT NULL,
			sender_id VARCHAR(255),
			username VARCHAR(255) NOT NULL,
			message VARCHAR(500) NOT NULL,
			message_type VARCHAR(16) NOT NULL DEFAULT 'TEXT',
			sent_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_chat_messages_quiz_id ON chat_messages(quiz_id);
	`

	if _, err := c.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	return nil
}
