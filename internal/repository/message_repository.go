package repository

import (
	"context"
	"fmt"

	"truefeedback/internal/domain"
	"truefeedback/pkg/database"
)

type PostgresMessageRepository struct {
	db *database.PostgresDB
}

func NewPostgresMessageRepository(db *database.PostgresDB) *PostgresMessageRepository {
	return &PostgresMessageRepository{db: db}
}

// Create stores an anonymous message. Nothing about the sender is written.
func (r *PostgresMessageRepository) Create(ctx context.Context, message *domain.Message) error {
	query := `
		INSERT INTO messages (id, recipient_id, content)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`

	err := r.db.Pool.QueryRow(ctx, query, message.ID, message.RecipientID, message.Content).
		Scan(&message.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}

	return nil
}

// ListByRecipient gets the newest messages of a recipient
func (r *PostgresMessageRepository) ListByRecipient(ctx context.Context, recipientID string, limit int) ([]domain.Message, error) {
	query := `
		SELECT id::text, recipient_id, content, created_at
		FROM messages
		WHERE recipient_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.Pool.Query(ctx, query, recipientID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	messages := []domain.Message{}
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.RecipientID, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}

	return messages, nil
}
