package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"truefeedback/internal/domain"
	"truefeedback/pkg/database"
)

const pgUniqueViolation = "23505"

// PostgresPollRepository stores polls in PostgreSQL with questions and responses as JSONB
type PostgresPollRepository struct {
	db *database.PostgresDB
}

func NewPostgresPollRepository(db *database.PostgresDB) *PostgresPollRepository {
	return &PostgresPollRepository{db: db}
}

// Create inserts a new poll
func (r *PostgresPollRepository) Create(ctx context.Context, poll *domain.Poll) error {
	questions, err := json.Marshal(poll.Questions)
	if err != nil {
		return fmt.Errorf("failed to encode questions: %w", err)
	}

	query := `
		INSERT INTO polls (id, slug, title, description, organization, created_by, questions)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb)
		RETURNING created_at, response_count
	`

	err = r.db.Pool.QueryRow(ctx, query,
		poll.ID,
		poll.Slug,
		poll.Title,
		poll.Description,
		poll.Organization,
		poll.CreatedBy,
		string(questions),
	).Scan(&poll.CreatedAt, &poll.ResponseCount)

	if isUniqueViolation(err) {
		return ErrSlugTaken
	}
	if err != nil {
		return fmt.Errorf("failed to create poll: %w", err)
	}

	return nil
}

// FindBySlug gets a poll and all of its responses
func (r *PostgresPollRepository) FindBySlug(ctx context.Context, slug string) (*domain.Poll, error) {
	var (
		poll      domain.Poll
		questions []byte
		responses []byte
	)
	query := `
		SELECT id::text, slug, title, description, organization, created_by,
		       questions, responses, response_count, created_at
		FROM polls
		WHERE slug = $1
	`

	err := r.db.Pool.QueryRow(ctx, query, slug).Scan(
		&poll.ID,
		&poll.Slug,
		&poll.Title,
		&poll.Description,
		&poll.Organization,
		&poll.CreatedBy,
		&questions,
		&responses,
		&poll.ResponseCount,
		&poll.CreatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get poll by slug: %w", err)
	}

	if err := json.Unmarshal(questions, &poll.Questions); err != nil {
		return nil, fmt.Errorf("failed to decode questions of poll %s: %w", poll.ID, err)
	}
	if err := json.Unmarshal(responses, &poll.Responses); err != nil {
		return nil, fmt.Errorf("failed to decode responses of poll %s: %w", poll.ID, err)
	}

	return &poll, nil
}

// AppendResponse appends in a single statement so concurrent submissions
// serialize on the row lock instead of overwriting each other
func (r *PostgresPollRepository) AppendResponse(ctx context.Context, pollID string, response domain.Response) (int, error) {
	payload, err := json.Marshal(response)
	if err != nil {
		return 0, fmt.Errorf("failed to encode response: %w", err)
	}

	query := `
		UPDATE polls
		SET responses = responses || jsonb_build_array($2::jsonb),
		    response_count = response_count + 1
		WHERE id = $1
		RETURNING response_count
	`

	var count int
	err = r.db.Pool.QueryRow(ctx, query, pollID, string(payload)).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrPollNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to append response: %w", err)
	}

	return count, nil
}

// ListByOwner lists the polls created by ownerID
func (r *PostgresPollRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.PollSummary, error) {
	query := `
		SELECT id::text, title, slug, organization, response_count, created_at
		FROM polls
		WHERE created_by = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list polls: %w", err)
	}
	defer rows.Close()

	summaries := []domain.PollSummary{}
	for rows.Next() {
		var s domain.PollSummary
		if err := rows.Scan(&s.ID, &s.Title, &s.Slug, &s.Organization, &s.TotalResponses, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan poll: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate polls: %w", err)
	}

	return summaries, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
