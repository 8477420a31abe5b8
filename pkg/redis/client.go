package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Client struct {
	rdb        *redis.Client
	KeyBuilder *KeyBuilder
	log        *zap.Logger
}

// Cache key patterns
const (
	KeyAnalytics        = "analytics:%s:%d" // analytics:{pollID}:{responseCount}
	KeyAnalyticsPattern = "analytics:%s:*"
	KeyRateLimit        = "ratelimit:%s:%s" // ratelimit:{scope}:{ipHash}
	KeyProfileBySlug    = "profile:slug:%s"
)

// TTL constants
const (
	TTLAnalytics = 10 * time.Minute
	TTLProfile   = 15 * time.Minute
)

// NewClient creates a new Redis client and verifies the connection
func NewClient(redisURL string, environment string, log *zap.Logger) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opts.PoolSize = 50
	opts.MinIdleConns = 5
	opts.MaxRetries = 3
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if log == nil {
		log = zap.NewNop()
	}

	return &Client{rdb: rdb, KeyBuilder: NewKeyBuilder(environment), log: log}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	if c.rdb != nil {
		return c.rdb.Close()
	}
	return nil
}

// Get retrieves a value. A missing key returns redis.Nil.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	start := time.Now()
	val, err := c.rdb.Get(ctx, key).Result()
	c.logOp("redis_get", key, time.Since(start), ignoreNil(err))
	return val, err
}

// Set stores a value with TTL
func (c *Client) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	start := time.Now()
	err := c.rdb.Set(ctx, key, value, ttl).Err()
	c.logOp("redis_set", key, time.Since(start), err)
	return err
}

// Delete removes keys
func (c *Client) Delete(ctx context.Context, keys ...string) error {
	start := time.Now()
	err := c.rdb.Del(ctx, keys...).Err()
	c.log.Debug("redis_del",
		zap.Int("keys", len(keys)),
		zap.Duration("duration", time.Since(start)),
		zap.Error(err))
	return err
}

// IncrWithExpire increments a counter and starts its TTL on the first hit.
// It returns the new value and the remaining TTL of the window.
func (c *Client) IncrWithExpire(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	start := time.Now()

	count, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		c.logOp("redis_incr", key, time.Since(start), err)
		return 0, 0, err
	}
	if count == 1 {
		if err := c.rdb.Expire(ctx, key, window).Err(); err != nil {
			c.logOp("redis_expire", key, time.Since(start), err)
			return count, 0, err
		}
	}

	ttl, err := c.rdb.TTL(ctx, key).Result()
	if err != nil {
		c.logOp("redis_ttl", key, time.Since(start), err)
		return count, 0, err
	}
	// A key that lost its expiry would never reset
	if ttl < 0 {
		_ = c.rdb.Expire(ctx, key, window).Err()
		ttl = window
	}

	c.log.Debug("redis_incr",
		zap.String("key_prefix", prefixForLog(key)),
		zap.Int64("value", count),
		zap.Duration("duration", time.Since(start)))
	return count, ttl, nil
}

// DeletePattern removes keys matching a glob pattern using SCAN
func (c *Client) DeletePattern(ctx context.Context, pattern string) (int, error) {
	start := time.Now()
	var (
		cursor  uint64
		deleted int
	)
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			c.logOp("redis_scan", pattern, time.Since(start), err)
			return deleted, err
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				c.logOp("redis_del", pattern, time.Since(start), err)
				return deleted, err
			}
			deleted += len(keys)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	c.log.Debug("redis_delete_pattern",
		zap.String("key_prefix", prefixForLog(pattern)),
		zap.Int("deleted", deleted),
		zap.Duration("duration", time.Since(start)))
	return deleted, nil
}

// Health checks the Redis connection
func (c *Client) Health(ctx context.Context) error {
	start := time.Now()
	err := c.rdb.Ping(ctx).Err()
	dur := time.Since(start)
	if err != nil {
		c.log.Info("redis_ping", zap.Duration("duration", dur), zap.Error(err))
	} else {
		c.log.Debug("redis_ping", zap.Duration("duration", dur))
	}
	return err
}

// Pipeline creates a new pipeline for batch operations
func (c *Client) Pipeline() redis.Pipeliner {
	return c.rdb.Pipeline()
}

func (c *Client) logOp(op, key string, dur time.Duration, err error) {
	if err != nil {
		c.log.Info(op,
			zap.String("key_prefix", prefixForLog(key)),
			zap.Duration("duration", dur),
			zap.Error(err))
		return
	}
	c.log.Debug(op,
		zap.String("key_prefix", prefixForLog(key)),
		zap.Duration("duration", dur))
}

// IsNil reports whether err is a cache miss
func IsNil(err error) bool {
	return err == redis.Nil
}

func ignoreNil(err error) error {
	if err == redis.Nil {
		return nil
	}
	return err
}

// prefixForLog returns a safe prefix of a key to avoid logging hashed client ids in full
func prefixForLog(key string) string {
	if len(key) <= 24 {
		return key
	}
	return key[:24] + "…"
}
