package repository

import (
	"context"
	"errors"

	"truefeedback/internal/domain"
)

var (
	// ErrPollNotFound is returned by AppendResponse when the poll no longer exists
	ErrPollNotFound = errors.New("poll not found")

	// ErrSlugTaken is returned when a unique slug is already in use
	ErrSlugTaken = errors.New("slug already taken")
)

// PollRepository defines the interface for poll persistence. Lookups return
// (nil, nil) when nothing matches.
type PollRepository interface {
	// Create stores a new poll with no responses
	Create(ctx context.Context, poll *domain.Poll) error

	// FindBySlug retrieves a poll with its responses
	FindBySlug(ctx context.Context, slug string) (*domain.Poll, error)

	// AppendResponse atomically appends a response and returns the new response count
	AppendResponse(ctx context.Context, pollID string, response domain.Response) (int, error)

	// ListByOwner returns the owner's polls, newest first, without responses
	ListByOwner(ctx context.Context, ownerID string) ([]domain.PollSummary, error)
}

// ProfileRepository defines the interface for public profiles
type ProfileRepository interface {
	// Upsert creates or updates the profile of profile.UserID
	Upsert(ctx context.Context, profile *domain.Profile) error

	GetByUserID(ctx context.Context, userID string) (*domain.Profile, error)

	GetBySlug(ctx context.Context, slug string) (*domain.Profile, error)
}

// MessageRepository defines the interface for anonymous messages
type MessageRepository interface {
	Create(ctx context.Context, message *domain.Message) error

	// ListByRecipient returns messages newest first
	ListByRecipient(ctx context.Context, recipientID string, limit int) ([]domain.Message, error)
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Poll    PollRepository
	Profile ProfileRepository
	Message MessageRepository
}
