package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"truefeedback/internal/domain"
	"truefeedback/internal/service"
	"truefeedback/pkg/errors"
	"truefeedback/pkg/logger"
)

// PollHandler handles poll HTTP requests
type PollHandler struct {
	pollService service.PollService
	logger      *logger.Logger
}

// NewPollHandler creates a new poll handler
func NewPollHandler(pollService service.PollService, logger *logger.Logger) *PollHandler {
	return &PollHandler{
		pollService: pollService,
		logger:      logger,
	}
}

// CreatePoll handles POST /api/polls
func (h *PollHandler) CreatePoll(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}

	var req domain.CreatePollRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err, h.logger)
		return
	}

	p, err := h.pollService.CreatePoll(r.Context(), userID, &req)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}

	respondJSON(w, http.StatusCreated, p, h.logger)
}

// ListMyPolls handles GET /api/polls
func (h *PollHandler) ListMyPolls(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}

	polls, err := h.pollService.ListMyPolls(r.Context(), userID)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	if polls == nil {
		polls = []domain.PollSummary{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"polls": polls}, h.logger)
}

// GetPoll handles GET /polls/{slug}
func (h *PollHandler) GetPoll(w http.ResponseWriter, r *http.Request) {
	p, err := h.pollService.GetPublicPoll(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=60")
	respondJSON(w, http.StatusOK, p, h.logger)
}

// SubmitResponse handles POST /polls/{slug}/responses
func (h *PollHandler) SubmitResponse(w http.ResponseWriter, r *http.Request) {
	var req domain.SubmitResponseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	if req.Answers == nil {
		respondError(w, r, errors.NewValidationError("answers are required", nil), h.logger)
		return
	}

	result, err := h.pollService.SubmitResponse(r.Context(), chi.URLParam(r, "slug"), req.Answers)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}

	respondJSON(w, http.StatusOK, result, h.logger)
}

// GetAnalytics handles GET /polls/{slug}/analytics
func (h *PollHandler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}

	analytics, err := h.pollService.GetAnalytics(r.Context(), chi.URLParam(r, "slug"), userID)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}

	w.Header().Set("Cache-Control", "private, no-store")
	respondJSON(w, http.StatusOK, analytics, h.logger)
}
