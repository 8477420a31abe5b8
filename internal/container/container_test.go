package container

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"truefeedback/internal/config"
	"truefeedback/internal/repository"
	"truefeedback/internal/service"
	"truefeedback/pkg/logger"
	"truefeedback/pkg/redis"
)

func testConfig() *config.Config {
	return &config.Config{
		Environment:       "test",
		JWTSecret:         "test-secret",
		SlugSalt:          "test-salt",
		SubmitRateLimit:   30,
		RateLimitWindow:   time.Hour,
		AnalyticsCacheTTL: time.Minute,
	}
}

func testRepositories() *repository.Repositories {
	return &repository.Repositories{
		Poll:    repository.NewPostgresPollRepository(nil),
		Profile: repository.NewPostgresProfileRepository(nil),
		Message: repository.NewPostgresMessageRepository(nil),
	}
}

func TestNewContainer_WithoutRedis(t *testing.T) {
	cfg := testConfig()
	log := logger.NewNop()

	c := newContainer(cfg, log, nil, testRepositories())

	assert.Equal(t, cfg, c.GetConfig())
	assert.Equal(t, log, c.GetLogger())
	assert.False(t, c.HasRedis())
	require.NotNil(t, c.Services)
	assert.NotNil(t, c.Services.Auth)
	assert.NotNil(t, c.Services.Poll)
	assert.NotNil(t, c.Services.Profile)
	assert.NotNil(t, c.Services.RateLimit)
	assert.Nil(t, c.Services.Cache)
	assert.False(t, c.Services.Cache.Enabled())
	assert.Empty(t, c.HealthChecks())

	// Without Redis the limiter lets everything through
	info, err := c.Services.RateLimit.Allow(context.Background(), service.ScopePollSubmit, "203.0.113.7")
	require.NoError(t, err)
	assert.True(t, info.IsAllowed)
}

func TestNewContainer_WithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	redisClient, err := redis.NewClient("redis://"+mr.Addr(), "staging", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = redisClient.Close() })

	cfg := testConfig()
	cfg.SubmitRateLimit = 1
	c := newContainer(cfg, logger.NewNop(), redisClient, testRepositories())

	assert.True(t, c.HasRedis())
	require.NotNil(t, c.Services.Cache)
	assert.True(t, c.Services.Cache.Enabled())

	checks := c.HealthChecks()
	require.Contains(t, checks, "redis")
	assert.NoError(t, checks["redis"].Health(context.Background()))

	ctx := context.Background()
	first, err := c.Services.RateLimit.Allow(ctx, service.ScopeMessageSend, "203.0.113.7")
	require.NoError(t, err)
	assert.True(t, first.IsAllowed)

	second, err := c.Services.RateLimit.Allow(ctx, service.ScopeMessageSend, "203.0.113.7")
	require.NoError(t, err)
	assert.False(t, second.IsAllowed)
}

func TestNew_InvalidDatabaseURL(t *testing.T) {
	cfg := testConfig()
	cfg.DatabaseURL = "postgres://%zz"

	c, err := New(context.Background(), cfg, logger.NewNop())
	assert.Error(t, err)
	assert.Nil(t, c)
}
