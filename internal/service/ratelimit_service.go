package service

import (
	"context"
	"fmt"
	"time"

	"truefeedback/internal/domain"
	"truefeedback/pkg/logger"
	"truefeedback/pkg/redis"
	"truefeedback/pkg/slug"
)

// Rate limit scopes
const (
	ScopePollSubmit  = "poll_submit"
	ScopeMessageSend = "message_send"
)

// rateLimitService is a fixed window counter per hashed client IP
type rateLimitService struct {
	redisClient *redis.Client
	logger      *logger.Logger
	salt        string
	limit       int64
	window      time.Duration
}

// NewRateLimitService creates a limiter. With a nil Redis client every request is allowed.
func NewRateLimitService(redisClient *redis.Client, logger *logger.Logger, salt string, limit int64, window time.Duration) RateLimitService {
	if window <= 0 {
		window = time.Hour
	}
	return &rateLimitService{
		redisClient: redisClient,
		logger:      logger,
		salt:        salt,
		limit:       limit,
		window:      window,
	}
}

// Allow counts the request and reports whether the client is still within its limit
func (s *rateLimitService) Allow(ctx context.Context, scope, clientIP string) (*domain.RateLimitInfo, error) {
	now := time.Now()
	if s.redisClient == nil {
		return &domain.RateLimitInfo{
			Scope:       scope,
			Limit:       s.limit,
			WindowStart: now,
			TTL:         s.window,
			IsAllowed:   true,
		}, nil
	}

	key := s.redisClient.KeyBuilder.KeyRateLimit(scope, slug.HashIP(clientIP, s.salt))

	count, ttl, err := s.redisClient.IncrWithExpire(ctx, key, s.window)
	if err != nil {
		return nil, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}

	info := &domain.RateLimitInfo{
		Scope:        scope,
		RequestCount: count,
		Limit:        s.limit,
		WindowStart:  now.Add(ttl - s.window),
		TTL:          ttl,
		IsAllowed:    count <= s.limit,
	}

	if !info.IsAllowed {
		s.logger.WithFields(map[string]interface{}{
			"scope":         scope,
			"request_count": count,
		}).Warn("Rate limit exceeded")
	}

	return info, nil
}
