package handler

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"

	"truefeedback/internal/middleware"
	"truefeedback/pkg/errors"
	"truefeedback/pkg/logger"
)

// maxBodyBytes caps request bodies; a full poll definition fits comfortably
const maxBodyBytes = 1 << 20

func respondJSON(w http.ResponseWriter, status int, data interface{}, log *logger.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.WithError(err).Error("Failed to encode response")
	}
}

func respondError(w http.ResponseWriter, r *http.Request, err error, log *logger.Logger) {
	middleware.WriteError(w, r, err, log)
}

// decodeJSON reads a JSON request body into dst
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case stderrors.As(err, &tooLarge):
			return errors.NewValidationError("request body too large", nil)
		case stderrors.Is(err, io.EOF):
			return errors.NewValidationError("request body is required", nil)
		default:
			return errors.NewValidationError("invalid request body", nil)
		}
	}
	return nil
}

// requireUser returns the authenticated caller's ID or writes a 401
func requireUser(w http.ResponseWriter, r *http.Request, log *logger.Logger) (string, bool) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		respondError(w, r, errors.NewAuthenticationError("authentication required"), log)
		return "", false
	}
	return userID, true
}
