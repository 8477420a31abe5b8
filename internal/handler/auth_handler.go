package handler

import (
	"net/http"

	"truefeedback/internal/domain"
	"truefeedback/internal/middleware"
	"truefeedback/internal/service"
	"truefeedback/pkg/errors"
	"truefeedback/pkg/logger"
)

// AuthHandler reports who the bearer token belongs to
type AuthHandler struct {
	profileService service.ProfileService
	logger         *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(profileService service.ProfileService, logger *logger.Logger) *AuthHandler {
	return &AuthHandler{
		profileService: profileService,
		logger:         logger,
	}
}

// MeResponse describes the caller. Profile is nil until a slug has been claimed.
type MeResponse struct {
	User    *domain.UserProfile `json:"user"`
	Profile *domain.Profile     `json:"profile"`
}

// Me handles GET /api/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		respondError(w, r, errors.NewAuthenticationError("User not authenticated"), h.logger)
		return
	}

	profile, err := h.profileService.GetMyProfile(r.Context(), user.Sub)
	if err != nil && !errors.IsType(err, errors.ErrorTypeNotFound) {
		respondError(w, r, err, h.logger)
		return
	}

	h.logger.WithField("user_id", user.Sub).Debug("User profile retrieved successfully")
	respondJSON(w, http.StatusOK, MeResponse{User: user, Profile: profile}, h.logger)
}
