package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"truefeedback/internal/domain"
	"truefeedback/internal/service"
	"truefeedback/pkg/errors"
	"truefeedback/pkg/logger"
)

// RateLimit limits anonymous submissions per client IP within scope. When the limiter
// itself fails the request is let through and the failure is logged.
func RateLimit(limiter service.RateLimitService, scope string, logger *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			info, err := limiter.Allow(r.Context(), scope, ClientIP(r))
			if err != nil {
				logger.WithError(err).WithField("scope", scope).Error("Rate limiter unavailable, allowing request")
				next.ServeHTTP(w, r)
				return
			}

			setRateLimitHeaders(w, info)

			if !info.IsAllowed {
				w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(info)))
				WriteError(w, r, errors.NewRateLimitError("Too many requests, please try again later"), logger)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// setRateLimitHeaders sets standard rate limit headers
func setRateLimitHeaders(w http.ResponseWriter, info *domain.RateLimitInfo) {
	w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(info.Limit, 10))
	w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(info.Remaining(), 10))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(info.TTL).Unix(), 10))
}

func retryAfterSeconds(info *domain.RateLimitInfo) int {
	seconds := int(math.Ceil(info.TTL.Seconds()))
	if seconds < 1 {
		return 1
	}
	return seconds
}
