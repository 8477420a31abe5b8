package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"truefeedback/internal/domain"
	"truefeedback/pkg/database"
)

type PostgresProfileRepository struct {
	db *database.PostgresDB
}

func NewPostgresProfileRepository(db *database.PostgresDB) *PostgresProfileRepository {
	return &PostgresProfileRepository{db: db}
}

// Upsert creates the profile or updates every editable field of it
func (r *PostgresProfileRepository) Upsert(ctx context.Context, profile *domain.Profile) error {
	query := `
		INSERT INTO profiles (user_id, slug, display_name, bio, is_organization, accepting_messages)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE SET
			slug = EXCLUDED.slug,
			display_name = EXCLUDED.display_name,
			bio = EXCLUDED.bio,
			is_organization = EXCLUDED.is_organization,
			accepting_messages = EXCLUDED.accepting_messages,
			updated_at = NOW()
		RETURNING created_at, updated_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		profile.UserID,
		profile.Slug,
		profile.DisplayName,
		profile.Bio,
		profile.IsOrganization,
		profile.AcceptingMessages,
	).Scan(&profile.CreatedAt, &profile.UpdatedAt)

	if isUniqueViolation(err) {
		return ErrSlugTaken
	}
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}

	return nil
}

// GetByUserID gets the profile owned by userID
func (r *PostgresProfileRepository) GetByUserID(ctx context.Context, userID string) (*domain.Profile, error) {
	return r.getOne(ctx, "user_id", userID)
}

// GetBySlug gets a profile by its public slug
func (r *PostgresProfileRepository) GetBySlug(ctx context.Context, slug string) (*domain.Profile, error) {
	return r.getOne(ctx, "slug", slug)
}

// column is one of the literals passed by the getters above
func (r *PostgresProfileRepository) getOne(ctx context.Context, column, value string) (*domain.Profile, error) {
	var p domain.Profile
	query := fmt.Sprintf(`
		SELECT user_id, slug, display_name, bio, is_organization, accepting_messages, created_at, updated_at
		FROM profiles
		WHERE %s = $1
	`, column)

	err := r.db.Pool.QueryRow(ctx, query, value).Scan(
		&p.UserID,
		&p.Slug,
		&p.DisplayName,
		&p.Bio,
		&p.IsOrganization,
		&p.AcceptingMessages,
		&p.CreatedAt,
		&p.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile by %s: %w", column, err)
	}

	return &p, nil
}
