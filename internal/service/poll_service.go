package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"truefeedback/internal/domain"
	"truefeedback/internal/poll"
	"truefeedback/internal/repository"
	"truefeedback/pkg/errors"
	"truefeedback/pkg/logger"
	"truefeedback/pkg/slug"
)

// Limits for poll metadata
const (
	MaxTitleLength        = 200
	MaxDescriptionLength  = 2000
	MaxOrganizationLength = 200

	slugAttempts = 3
)

type pollService struct {
	repo     repository.PollRepository
	cache    AnalyticsCache
	slugSalt string
	logger   *logger.Logger
}

// NewPollService creates a new poll service
func NewPollService(repo repository.PollRepository, cache AnalyticsCache, slugSalt string, logger *logger.Logger) PollService {
	return &pollService{
		repo:     repo,
		cache:    cache,
		slugSalt: slugSalt,
		logger:   logger,
	}
}

// CreatePoll validates the definition, derives a share slug and stores the poll
func (s *pollService) CreatePoll(ctx context.Context, ownerID string, req *domain.CreatePollRequest) (*domain.Poll, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, errors.NewValidationError("title is required", nil)
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return nil, errors.NewValidationError(fmt.Sprintf("title must be at most %d characters", MaxTitleLength), nil)
	}
	description := strings.TrimSpace(req.Description)
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return nil, errors.NewValidationError(fmt.Sprintf("description must be at most %d characters", MaxDescriptionLength), nil)
	}
	organization := strings.TrimSpace(req.Organization)
	if utf8.RuneCountInString(organization) > MaxOrganizationLength {
		return nil, errors.NewValidationError(fmt.Sprintf("organization must be at most %d characters", MaxOrganizationLength), nil)
	}

	questions, err := poll.ValidateQuestions(req.Questions)
	if err != nil {
		return nil, err
	}

	p := &domain.Poll{
		Title:        title,
		Description:  description,
		Organization: organization,
		Questions:    questions,
		CreatedBy:    ownerID,
	}

	// A fresh id gives a fresh slug, so a collision only costs a retry
	for attempt := 1; attempt <= slugAttempts; attempt++ {
		p.ID = uuid.NewString()
		p.Slug = slug.ForPoll(p.ID, s.slugSalt)
		p.CreatedAt = time.Now().UTC()

		err = s.repo.Create(ctx, p)
		if err == nil {
			s.logger.WithFields(map[string]interface{}{
				"poll_id":   p.ID,
				"slug":      p.Slug,
				"owner_id":  ownerID,
				"questions": len(p.Questions),
			}).Info("Poll created")
			return p, nil
		}
		if !stderrors.Is(err, repository.ErrSlugTaken) {
			break
		}
		s.logger.WithField("attempt", attempt).Warn("Poll slug collision, retrying")
	}

	s.logger.WithError(err).WithField("owner_id", ownerID).Error("Failed to create poll")
	return nil, errors.NewPersistenceError("failed to create poll", err)
}

// GetPublicPoll returns the poll definition respondents need
func (s *pollService) GetPublicPoll(ctx context.Context, slug string) (*domain.Poll, error) {
	p, err := s.findBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	p.Responses = nil
	return p, nil
}

// SubmitResponse runs find, validate, append. Nothing is stored unless every answer is valid.
func (s *pollService) SubmitResponse(ctx context.Context, slug string, answers []domain.AnswerInput) (*domain.SubmitResponseResult, error) {
	p, err := s.findBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	normalized, err := poll.Validate(p.Questions, answers)
	if err != nil {
		s.logger.WithField("poll_id", p.ID).WithError(err).Debug("Rejected poll submission")
		return nil, err
	}

	response := domain.Response{
		Answers:     normalized,
		SubmittedAt: time.Now().UTC(),
	}

	total, err := s.repo.AppendResponse(ctx, p.ID, response)
	if stderrors.Is(err, repository.ErrPollNotFound) {
		return nil, errors.NewNotFoundError("poll not found")
	}
	if err != nil {
		s.logger.WithError(err).WithField("poll_id", p.ID).Error("Failed to save poll response")
		return nil, errors.NewPersistenceError("failed to save response", err)
	}

	s.cache.InvalidateAnalytics(p.ID)

	s.logger.WithFields(map[string]interface{}{
		"poll_id":         p.ID,
		"total_responses": total,
	}).Info("Poll response recorded")

	return &domain.SubmitResponseResult{Success: true, TotalResponses: total}, nil
}

// GetAnalytics aggregates a poll's responses. Only the poll owner may read them.
func (s *pollService) GetAnalytics(ctx context.Context, slug, requesterID string) (domain.Analytics, error) {
	p, err := s.findBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if p.CreatedBy != requesterID {
		return nil, errors.NewAuthorizationError("only the poll owner can view analytics")
	}

	analytics := s.cache.GetAnalytics(ctx, p.ID, len(p.Responses), func() domain.Analytics {
		return poll.Aggregate(p.Questions, p.Responses)
	})
	return analytics, nil
}

// ListMyPolls lists the caller's polls
func (s *pollService) ListMyPolls(ctx context.Context, ownerID string) ([]domain.PollSummary, error) {
	summaries, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		s.logger.WithError(err).WithField("owner_id", ownerID).Error("Failed to list polls")
		return nil, errors.NewPersistenceError("failed to list polls", err)
	}
	return summaries, nil
}

func (s *pollService) findBySlug(ctx context.Context, slug string) (*domain.Poll, error) {
	p, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		s.logger.WithError(err).WithField("slug", slug).Error("Failed to load poll")
		return nil, errors.NewPersistenceError("failed to load poll", err)
	}
	if p == nil {
		return nil, errors.NewNotFoundError("poll not found")
	}
	return p, nil
}
