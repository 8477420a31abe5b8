package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"truefeedback/internal/domain"
	"truefeedback/internal/repository"
	"truefeedback/pkg/errors"
	"truefeedback/pkg/logger"
)

// Profile and message limits
const (
	MaxDisplayNameLength = 100
	MaxBioLength         = 500
	MaxMessageLength     = 1000
	DefaultMessageLimit  = 50
	MaxMessageLimit      = 200
)

var profileSlugPattern = regexp.MustCompile(`^[a-z0-9-]{3,32}$`)

type profileService struct {
	profiles repository.ProfileRepository
	messages repository.MessageRepository
	cache    *CacheService
	logger   *logger.Logger
}

// NewProfileService creates a new profile service. cache may be nil.
func NewProfileService(profiles repository.ProfileRepository, messages repository.MessageRepository, cache *CacheService, logger *logger.Logger) ProfileService {
	return &profileService{
		profiles: profiles,
		messages: messages,
		cache:    cache,
		logger:   logger,
	}
}

// UpsertProfile claims or updates the caller's public profile
func (s *profileService) UpsertProfile(ctx context.Context, userID string, req *domain.UpsertProfileRequest) (*domain.Profile, error) {
	slug := strings.ToLower(strings.TrimSpace(req.Slug))
	if !profileSlugPattern.MatchString(slug) {
		return nil, errors.NewValidationError("slug must be 3 to 32 characters of a-z, 0-9 or -", nil)
	}
	displayName := strings.TrimSpace(req.DisplayName)
	if n := utf8.RuneCountInString(displayName); n == 0 || n > MaxDisplayNameLength {
		return nil, errors.NewValidationError(
			fmt.Sprintf("display name must be 1 to %d characters", MaxDisplayNameLength), nil)
	}
	bio := strings.TrimSpace(req.Bio)
	if utf8.RuneCountInString(bio) > MaxBioLength {
		return nil, errors.NewValidationError(fmt.Sprintf("bio must be at most %d characters", MaxBioLength), nil)
	}

	existing, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Error("Failed to load profile")
		return nil, errors.NewPersistenceError("failed to load profile", err)
	}

	accepting := true
	if existing != nil {
		accepting = existing.AcceptingMessages
	}
	if req.AcceptingMessages != nil {
		accepting = *req.AcceptingMessages
	}

	profile := &domain.Profile{
		UserID:            userID,
		Slug:              slug,
		DisplayName:       displayName,
		Bio:               bio,
		IsOrganization:    req.IsOrganization,
		AcceptingMessages: accepting,
	}

	err = s.profiles.Upsert(ctx, profile)
	if stderrors.Is(err, repository.ErrSlugTaken) {
		return nil, errors.NewConflictError(fmt.Sprintf("slug %q is already taken", slug))
	}
	if err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Error("Failed to save profile")
		return nil, errors.NewPersistenceError("failed to save profile", err)
	}

	oldSlug := ""
	if existing != nil {
		oldSlug = existing.Slug
	}
	s.cache.InvalidateProfile(oldSlug, slug)

	s.logger.WithFields(map[string]interface{}{
		"user_id": userID,
		"slug":    slug,
		"created": existing == nil,
	}).Info("Profile saved")

	return profile, nil
}

// GetMyProfile returns the caller's own profile
func (s *profileService) GetMyProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Error("Failed to load profile")
		return nil, errors.NewPersistenceError("failed to load profile", err)
	}
	if profile == nil {
		return nil, errors.NewNotFoundError("profile not found")
	}
	return profile, nil
}

// GetProfile returns a public profile by slug
func (s *profileService) GetProfile(ctx context.Context, slug string) (*domain.Profile, error) {
	profile, err := s.cache.GetProfileWithCache(ctx, strings.ToLower(slug), s.profiles.GetBySlug)
	if err != nil {
		s.logger.WithError(err).WithField("slug", slug).Error("Failed to load profile")
		return nil, errors.NewPersistenceError("failed to load profile", err)
	}
	if profile == nil {
		return nil, errors.NewNotFoundError("profile not found")
	}
	return profile, nil
}

// SendMessage stores an anonymous message for the profile behind slug
func (s *profileService) SendMessage(ctx context.Context, slug, content string) (*domain.Message, error) {
	content = strings.TrimSpace(content)
	if n := utf8.RuneCountInString(content); n == 0 || n > MaxMessageLength {
		return nil, errors.NewValidationError(
			fmt.Sprintf("message must be 1 to %d characters", MaxMessageLength), nil)
	}

	recipient, err := s.GetProfile(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !recipient.AcceptingMessages {
		return nil, errors.NewAuthorizationError("this profile is not accepting messages")
	}

	message := &domain.Message{
		ID:          uuid.NewString(),
		RecipientID: recipient.UserID,
		Content:     content,
	}
	if err := s.messages.Create(ctx, message); err != nil {
		s.logger.WithError(err).WithField("slug", slug).Error("Failed to save message")
		return nil, errors.NewPersistenceError("failed to send message", err)
	}

	s.logger.WithField("slug", recipient.Slug).Info("Anonymous message delivered")
	return message, nil
}

// ListMessages returns the caller's inbox, newest first
func (s *profileService) ListMessages(ctx context.Context, userID string, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		limit = DefaultMessageLimit
	}
	if limit > MaxMessageLimit {
		limit = MaxMessageLimit
	}

	messages, err := s.messages.ListByRecipient(ctx, userID, limit)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Error("Failed to list messages")
		return nil, errors.NewPersistenceError("failed to list messages", err)
	}
	return messages, nil
}
