package service

import (
	"context"

	"truefeedback/internal/domain"
)

// AuthService defines the interface for bearer token verification
type AuthService interface {
	// VerifyToken checks a token issued by the auth provider and returns the caller
	VerifyToken(ctx context.Context, token string) (*domain.UserProfile, error)
}

// PollService defines the interface for poll operations
type PollService interface {
	// CreatePoll validates and stores a new poll owned by ownerID
	CreatePoll(ctx context.Context, ownerID string, req *domain.CreatePollRequest) (*domain.Poll, error)

	// GetPublicPoll returns a poll definition without its responses
	GetPublicPoll(ctx context.Context, slug string) (*domain.Poll, error)

	// SubmitResponse validates and records one anonymous submission
	SubmitResponse(ctx context.Context, slug string, answers []domain.AnswerInput) (*domain.SubmitResponseResult, error)

	// GetAnalytics aggregates the responses of a poll for its owner
	GetAnalytics(ctx context.Context, slug, requesterID string) (domain.Analytics, error)

	// ListMyPolls lists the polls created by ownerID
	ListMyPolls(ctx context.Context, ownerID string) ([]domain.PollSummary, error)
}

// ProfileService defines the interface for profiles and anonymous messages
type ProfileService interface {
	UpsertProfile(ctx context.Context, userID string, req *domain.UpsertProfileRequest) (*domain.Profile, error)
	GetMyProfile(ctx context.Context, userID string) (*domain.Profile, error)
	GetProfile(ctx context.Context, slug string) (*domain.Profile, error)
	SendMessage(ctx context.Context, slug, content string) (*domain.Message, error)
	ListMessages(ctx context.Context, userID string, limit int) ([]domain.Message, error)
}

// RateLimitService defines the interface for per-client submission limits
type RateLimitService interface {
	// Allow counts one request from clientIP in scope and reports whether it may proceed
	Allow(ctx context.Context, scope, clientIP string) (*domain.RateLimitInfo, error)
}

// AnalyticsCache caches aggregated analytics
type AnalyticsCache interface {
	GetAnalytics(ctx context.Context, pollID string, responseCount int, compute func() domain.Analytics) domain.Analytics
	InvalidateAnalytics(pollID string)
}

// Services aggregates all service interfaces
type Services struct {
	Auth      AuthService
	Poll      PollService
	Profile   ProfileService
	RateLimit RateLimitService
	Cache     *CacheService
}
