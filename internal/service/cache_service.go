package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"truefeedback/internal/domain"
	"truefeedback/pkg/redis"
)

// CacheService provides cache-aside helpers on top of Redis. A nil Redis client
// turns every method into a pass-through.
type CacheService struct {
	redis        *redis.Client
	logger       *zap.Logger
	analyticsTTL time.Duration
}

// NewCacheService creates a new cache service
func NewCacheService(redisClient *redis.Client, logger *zap.Logger, analyticsTTL time.Duration) *CacheService {
	if analyticsTTL <= 0 {
		analyticsTTL = redis.TTLAnalytics
	}
	return &CacheService{
		redis:        redisClient,
		logger:       logger,
		analyticsTTL: analyticsTTL,
	}
}

// Enabled reports whether a Redis client is attached
func (c *CacheService) Enabled() bool {
	return c != nil && c.redis != nil
}

// GetAnalytics returns cached analytics for the poll at responseCount, computing
// and caching them on a miss. Cache errors never fail the request.
func (c *CacheService) GetAnalytics(ctx context.Context, pollID string, responseCount int, compute func() domain.Analytics) domain.Analytics {
	if !c.Enabled() {
		return compute()
	}

	cacheKey := c.redis.KeyBuilder.KeyAnalytics(pollID, responseCount)

	cachedData, err := c.redis.Get(ctx, cacheKey)
	if err == nil && cachedData != "" {
		var analytics domain.Analytics
		if unmarshalErr := json.Unmarshal([]byte(cachedData), &analytics); unmarshalErr == nil {
			c.logger.Debug("Analytics cache hit", zap.String("poll_id", pollID))
			return analytics
		} else {
			c.logger.Warn("Analytics cache corrupted, recomputing",
				zap.String("poll_id", pollID),
				zap.Error(unmarshalErr))
		}
	} else if err != nil && !redis.IsNil(err) {
		c.logger.Warn("Analytics cache error, recomputing",
			zap.String("poll_id", pollID),
			zap.Error(err))
	}

	c.logger.Debug("Analytics cache miss", zap.String("poll_id", pollID))
	analytics := compute()

	go c.setAsync(cacheKey, analytics, c.analyticsTTL)

	return analytics
}

// InvalidateAnalytics drops every cached analytics entry of the poll in the background
func (c *CacheService) InvalidateAnalytics(pollID string) {
	if !c.Enabled() {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		n, err := c.redis.DeletePattern(ctx, c.redis.KeyBuilder.KeyAnalyticsPattern(pollID))
		if err != nil {
			c.logger.Error("Failed to invalidate analytics cache",
				zap.String("poll_id", pollID),
				zap.Error(err))
			return
		}
		c.logger.Debug("Analytics cache invalidated",
			zap.String("poll_id", pollID),
			zap.Int("keys", n))
	}()
}

// profileEntry keeps the owner id, which the public JSON form of a profile hides
type profileEntry struct {
	domain.Profile
	UserID string `json:"userId"`
}

// GetProfileWithCache looks a profile up by slug with the cache-aside pattern
func (c *CacheService) GetProfileWithCache(ctx context.Context, slug string, dbFallback func(ctx context.Context, slug string) (*domain.Profile, error)) (*domain.Profile, error) {
	if !c.Enabled() {
		return dbFallback(ctx, slug)
	}

	cacheKey := c.redis.KeyBuilder.KeyProfileBySlug(slug)

	cachedData, err := c.redis.Get(ctx, cacheKey)
	if err == nil && cachedData != "" {
		var entry profileEntry
		if unmarshalErr := json.Unmarshal([]byte(cachedData), &entry); unmarshalErr == nil {
			profile := entry.Profile
			profile.UserID = entry.UserID
			return &profile, nil
		} else {
			c.logger.Warn("Profile cache corrupted, falling back to database",
				zap.String("slug", slug),
				zap.Error(unmarshalErr))
		}
	} else if err != nil && !redis.IsNil(err) {
		c.logger.Warn("Profile cache error, falling back to database",
			zap.String("slug", slug),
			zap.Error(err))
	}

	profile, err := dbFallback(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("database fallback failed: %w", err)
	}

	if profile != nil {
		go c.setAsync(cacheKey, profileEntry{Profile: *profile, UserID: profile.UserID}, redis.TTLProfile)
	}

	return profile, nil
}

// InvalidateProfile drops cached profiles for the given slugs
func (c *CacheService) InvalidateProfile(slugs ...string) {
	if !c.Enabled() || len(slugs) == 0 {
		return
	}
	keys := make([]string, 0, len(slugs))
	for _, s := range slugs {
		if s != "" {
			keys = append(keys, c.redis.KeyBuilder.KeyProfileBySlug(s))
		}
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := c.redis.Delete(ctx, keys...); err != nil {
			c.logger.Error("Failed to invalidate profile cache",
				zap.Strings("keys", keys),
				zap.Error(err))
		}
	}()
}

// HealthCheck performs a health check on the cache system
func (c *CacheService) HealthCheck(ctx context.Context) error {
	if !c.Enabled() {
		return fmt.Errorf("redis not configured")
	}

	start := time.Now()
	err := c.redis.Health(ctx)
	duration := time.Since(start)

	if err != nil {
		c.logger.Error("Cache health check failed",
			zap.Duration("duration", duration),
			zap.Error(err))
		return err
	}

	c.logger.Debug("Cache health check passed", zap.Duration("duration", duration))
	return nil
}

// setAsync writes a JSON value with its own timeout
func (c *CacheService) setAsync(key string, value interface{}, ttl time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Error("Failed to marshal value for caching", zap.Error(err))
		return
	}

	if err := c.redis.Set(ctx, key, string(data), ttl); err != nil {
		c.logger.Error("Failed to cache value", zap.Error(err))
	}
}
