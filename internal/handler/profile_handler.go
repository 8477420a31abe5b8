package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"truefeedback/internal/domain"
	"truefeedback/internal/service"
	"truefeedback/pkg/errors"
	"truefeedback/pkg/logger"
)

// ProfileHandler handles profile and anonymous message requests
type ProfileHandler struct {
	profileService service.ProfileService
	logger         *logger.Logger
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profileService service.ProfileService, logger *logger.Logger) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		logger:         logger,
	}
}

// UpsertProfile handles PUT /api/profile
func (h *ProfileHandler) UpsertProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}

	var req domain.UpsertProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err, h.logger)
		return
	}

	profile, err := h.profileService.UpsertProfile(r.Context(), userID, &req)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}

	respondJSON(w, http.StatusOK, profile, h.logger)
}

// GetMyProfile handles GET /api/profile
func (h *ProfileHandler) GetMyProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}

	profile, err := h.profileService.GetMyProfile(r.Context(), userID)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}

	respondJSON(w, http.StatusOK, profile, h.logger)
}

// GetProfile handles GET /u/{slug}
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profileService.GetProfile(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}

	respondJSON(w, http.StatusOK, profile, h.logger)
}

// SendMessage handles POST /u/{slug}/messages
func (h *ProfileHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req domain.SendMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err, h.logger)
		return
	}

	message, err := h.profileService.SendMessage(r.Context(), chi.URLParam(r, "slug"), req.Content)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"success":   true,
		"id":        message.ID,
		"createdAt": message.CreatedAt,
	}, h.logger)
}

// ListMessages handles GET /api/messages?limit=n
func (h *ProfileHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			respondError(w, r, errors.NewValidationError("limit must be a positive integer", nil), h.logger)
			return
		}
		limit = parsed
	}

	messages, err := h.profileService.ListMessages(r.Context(), userID, limit)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	if messages == nil {
		messages = []domain.Message{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"messages": messages}, h.logger)
}
