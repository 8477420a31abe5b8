package middleware

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"truefeedback/internal/domain"
	"truefeedback/internal/service"
	"truefeedback/pkg/errors"
	"truefeedback/pkg/logger"
)

// ContextKey represents keys used in request context
type ContextKey string

const (
	// UserContextKey is the key for user information in context
	UserContextKey ContextKey = "user"
	// RequestIDContextKey is the key for request ID in context
	RequestIDContextKey ContextKey = "request_id"
)

// RequestIDHeader carries the request ID in both directions
const RequestIDHeader = "X-Request-ID"

// Auth creates an authentication middleware. Requests without a valid bearer token
// are rejected with 401.
func Auth(authService service.AuthService, logger *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, appErr := bearerToken(r)
			if appErr != nil {
				WriteError(w, r, appErr, logger)
				return
			}

			ctx := r.Context()
			userProfile, err := authService.VerifyToken(ctx, token)
			if err != nil {
				logger.WithError(err).Warn("Token validation failed")
				WriteError(w, r, errors.NewAuthenticationError("Invalid or expired token"), logger)
				return
			}

			ctx = context.WithValue(ctx, UserContextKey, userProfile)
			logger.WithField("user_id", userProfile.Sub).Debug("User authenticated successfully")

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth attaches the caller when a bearer token is present and lets anonymous
// requests through. A malformed or invalid token is still rejected.
func OptionalAuth(authService service.AuthService, logger *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				next.ServeHTTP(w, r)
				return
			}
			Auth(authService, logger)(next).ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, *errors.AppError) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errors.NewAuthenticationError("Authorization header is required")
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", errors.NewAuthenticationError("Invalid authorization header format")
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", errors.NewAuthenticationError("Token is required")
	}
	return token, nil
}

// RequestID creates a middleware that adds a unique request ID to each request.
// An incoming X-Request-ID is kept so that IDs can be followed across services.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" || len(requestID) > 64 {
				requestID = uuid.NewString()
			}

			ctx := context.WithValue(r.Context(), RequestIDContextKey, requestID)
			w.Header().Set(RequestIDHeader, requestID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUser returns the authenticated caller, or nil for anonymous requests
func GetUser(ctx context.Context) *domain.UserProfile {
	user, _ := ctx.Value(UserContextKey).(*domain.UserProfile)
	return user
}

// GetUserID returns the authenticated caller's subject, or ""
func GetUserID(ctx context.Context) string {
	if user := GetUser(ctx); user != nil {
		return user.Sub
	}
	return ""
}

// GetRequestID returns the request ID set by RequestID
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDContextKey).(string)
	return id
}

// ClientIP returns the address of the caller. chi's RealIP middleware has already
// rewritten RemoteAddr from X-Forwarded-For / X-Real-IP when it runs first.
func ClientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	if ip == "::1" {
		return "127.0.0.1"
	}
	return ip
}

// WriteError writes err as a JSON error body. AppErrors keep their status code and
// message; anything else becomes a generic 500 and is logged with its cause.
func WriteError(w http.ResponseWriter, r *http.Request, err error, logger *logger.Logger) {
	appErr, ok := errors.AsAppError(err)
	if !ok {
		appErr = errors.NewInternalError("Internal server error", err)
	}

	requestID := GetRequestID(r.Context())
	log := logger.WithFields(map[string]interface{}{
		"request_id": requestID,
		"path":       r.URL.Path,
		"status":     appErr.StatusCode,
	})
	if appErr.StatusCode >= http.StatusInternalServerError {
		log.WithError(err).Error("Request failed")
	} else {
		log.WithField("error_type", appErr.Type).Debug("Request rejected")
	}

	// Details are only exposed for caller mistakes
	response := errors.ErrorResponse{
		Error:     appErr.Message,
		Type:      appErr.Type,
		RequestID: requestID,
	}
	if appErr.StatusCode < http.StatusInternalServerError {
		response.Details = appErr.Details
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode)
	if encodeErr := json.NewEncoder(w).Encode(response); encodeErr != nil {
		logger.WithError(encodeErr).Error("Failed to encode error response")
	}
}
