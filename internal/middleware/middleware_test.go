package middleware

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"truefeedback/internal/domain"
	"truefeedback/pkg/errors"
	"truefeedback/pkg/logger"
)

type fakeAuthService struct {
	users map[string]*domain.UserProfile
}

func (f *fakeAuthService) VerifyToken(_ context.Context, token string) (*domain.UserProfile, error) {
	if user, ok := f.users[token]; ok {
		return user, nil
	}
	return nil, stderrors.New("invalid token")
}

type fakeLimiter struct {
	info *domain.RateLimitInfo
	err  error
	ips  []string
}

func (f *fakeLimiter) Allow(_ context.Context, scope, clientIP string) (*domain.RateLimitInfo, error) {
	f.ips = append(f.ips, clientIP)
	if f.err != nil {
		return nil, f.err
	}
	info := *f.info
	info.Scope = scope
	return &info, nil
}

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errors.ErrorResponse {
	t.Helper()
	var body errors.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestAuth(t *testing.T) {
	authService := &fakeAuthService{users: map[string]*domain.UserProfile{
		"good-token": {Sub: "user-1", Email: "owner@example.com"},
	}}

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantError  string
	}{
		{name: "valid token", header: "Bearer good-token", wantStatus: http.StatusOK},
		{name: "missing header", header: "", wantStatus: http.StatusUnauthorized, wantError: "Authorization header is required"},
		{name: "wrong scheme", header: "Basic abc", wantStatus: http.StatusUnauthorized, wantError: "Invalid authorization header format"},
		{name: "empty token", header: "Bearer ", wantStatus: http.StatusUnauthorized, wantError: "Token is required"},
		{name: "invalid token", header: "Bearer bad-token", wantStatus: http.StatusUnauthorized, wantError: "Invalid or expired token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUser string
			handler := Auth(authService, logger.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUser = GetUserID(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/polls", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantError == "" {
				assert.Equal(t, "user-1", gotUser)
				return
			}
			body := decodeError(t, rec)
			assert.Equal(t, tt.wantError, body.Error)
			assert.Equal(t, errors.ErrorTypeAuthentication, body.Type)
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	authService := &fakeAuthService{users: map[string]*domain.UserProfile{"good-token": {Sub: "user-1"}}}
	var gotUser *domain.UserProfile
	handler := OptionalAuth(authService, logger.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = GetUser(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, gotUser)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, gotUser)
	assert.Equal(t, "user-1", gotUser.Sub)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer bad-token")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequestID(t *testing.T) {
	var seen string
	handler := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "upstream-id")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "upstream-id", seen)
	assert.Equal(t, "upstream-id", rec.Header().Get(RequestIDHeader))
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		remoteAddr string
		want       string
	}{
		{remoteAddr: "203.0.113.7:51234", want: "203.0.113.7"},
		{remoteAddr: "[2001:db8::1]:443", want: "2001:db8::1"},
		{remoteAddr: "[::1]:8080", want: "127.0.0.1"},
		{remoteAddr: "198.51.100.2", want: "198.51.100.2"},
	}

	for _, tt := range tests {
		t.Run(tt.remoteAddr, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			assert.Equal(t, tt.want, ClientIP(req))
		})
	}
}

func TestWriteError(t *testing.T) {
	t.Run("app error keeps status and details", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/polls/abc/responses", nil)
		WriteError(rec, req, errors.NewValidationError("bad answer", map[string]interface{}{"question_id": "q1"}), logger.NewNop())

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		body := decodeError(t, rec)
		assert.Equal(t, "bad answer", body.Error)
		assert.Equal(t, "q1", body.Details["question_id"])
	})

	t.Run("plain error hides cause", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		WriteError(rec, req, stderrors.New("connection refused"), logger.NewNop())

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		body := decodeError(t, rec)
		assert.Equal(t, "Internal server error", body.Error)
		assert.NotContains(t, rec.Body.String(), "connection refused")
	})
}

func TestRateLimit(t *testing.T) {
	t.Run("allowed request gets headers", func(t *testing.T) {
		limiter := &fakeLimiter{info: &domain.RateLimitInfo{RequestCount: 3, Limit: 30, TTL: time.Hour, IsAllowed: true}}
		called := false
		handler := RateLimit(limiter, "poll_submit", logger.NewNop())(okHandler(&called))

		req := httptest.NewRequest(http.MethodPost, "/polls/abc/responses", nil)
		req.RemoteAddr = "203.0.113.7:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.True(t, called)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "30", rec.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "27", rec.Header().Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Reset"))
		assert.Equal(t, []string{"203.0.113.7"}, limiter.ips)
	})

	t.Run("over limit is rejected", func(t *testing.T) {
		limiter := &fakeLimiter{info: &domain.RateLimitInfo{RequestCount: 31, Limit: 30, TTL: 90 * time.Second}}
		called := false
		handler := RateLimit(limiter, "poll_submit", logger.NewNop())(okHandler(&called))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))

		assert.False(t, called)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
		assert.Equal(t, "90", rec.Header().Get("Retry-After"))
		body := decodeError(t, rec)
		assert.Equal(t, errors.ErrorTypeRateLimit, body.Type)
	})

	t.Run("limiter failure lets request through", func(t *testing.T) {
		limiter := &fakeLimiter{err: stderrors.New("redis down")}
		called := false
		handler := RateLimit(limiter, "message_send", logger.NewNop())(okHandler(&called))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))

		assert.True(t, called)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
	})
}

func TestCORS(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowedOrigins = []string{"https://app.example.com"}

	called := false
	handler := CORS(cfg, logger.NewNop())(okHandler(&called))

	req := httptest.NewRequest(http.MethodOptions, "/api/polls", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "86400", rec.Header().Get("Access-Control-Max-Age"))
	assert.Equal(t, "Origin", rec.Header().Get("Vary"))

	req = httptest.NewRequest(http.MethodGet, "/api/polls", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.True(t, called)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
