package container

import (
	"context"
	"fmt"

	"truefeedback/internal/config"
	"truefeedback/internal/repository"
	"truefeedback/internal/service"
	"truefeedback/internal/service/auth"
	"truefeedback/pkg/database"
	"truefeedback/pkg/logger"
	"truefeedback/pkg/mongodb"
	"truefeedback/pkg/redis"
)

// HealthChecker is implemented by every backing store client
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	Logger       *logger.Logger
	Postgres     *database.PostgresDB
	Mongo        *mongodb.MongoDB
	RedisClient  *redis.Client
	Repositories *repository.Repositories
	Services     *service.Services
}

// New connects to the configured stores and wires repositories and services.
// Postgres is required; Redis is optional and the API runs without caching or
// rate limiting when it is unavailable.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Container, error) {
	db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("PostgreSQL connection pool initialized")

	repos := &repository.Repositories{
		Poll:    repository.NewPostgresPollRepository(db),
		Profile: repository.NewPostgresProfileRepository(db),
		Message: repository.NewPostgresMessageRepository(db),
	}

	var mongo *mongodb.MongoDB
	if cfg.StoreBackend == config.StoreMongo {
		mongo, err = mongodb.NewMongoDB(ctx, cfg.MongoURL, cfg.MongoDatabase)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		pollRepo := repository.NewMongoPollRepository(mongo)
		if err := pollRepo.EnsureIndexes(ctx); err != nil {
			db.Close()
			_ = mongo.Close(ctx)
			return nil, fmt.Errorf("failed to create MongoDB indexes: %w", err)
		}
		repos.Poll = pollRepo
		log.WithField("database", cfg.MongoDatabase).Info("Polls stored in MongoDB")
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		client, err := redis.NewClient(cfg.RedisURL, cfg.Environment, log.Logger)
		if err != nil {
			log.WithError(err).Warn("Failed to initialize Redis client, proceeding without caching")
		} else {
			redisClient = client
			log.WithField("key_prefix", client.KeyBuilder.GetPrefix()).Info("Redis client initialized successfully")
		}
	} else {
		log.Info("Redis URL not configured, proceeding without caching")
	}

	c := newContainer(cfg, log, redisClient, repos)
	c.Postgres = db
	c.Mongo = mongo
	return c, nil
}

// newContainer wires services on top of already opened clients and repositories
func newContainer(cfg *config.Config, log *logger.Logger, redisClient *redis.Client, repos *repository.Repositories) *Container {
	var cache *service.CacheService
	if redisClient != nil {
		cache = service.NewCacheService(redisClient, log.Logger, cfg.AnalyticsCacheTTL)
	}

	services := &service.Services{
		Auth:      auth.NewService(cfg.JWTSecret, cfg.JWTIssuer, cfg.GoogleClientID, log),
		Poll:      service.NewPollService(repos.Poll, cache, cfg.SlugSalt, log),
		Profile:   service.NewProfileService(repos.Profile, repos.Message, cache, log),
		RateLimit: service.NewRateLimitService(redisClient, log, cfg.SlugSalt, cfg.SubmitRateLimit, cfg.RateLimitWindow),
		Cache:     cache,
	}

	return &Container{
		Config:       cfg,
		Logger:       log,
		RedisClient:  redisClient,
		Repositories: repos,
		Services:     services,
	}
}

// GetLogger returns the logger
func (c *Container) GetLogger() *logger.Logger {
	return c.Logger
}

// GetConfig returns the configuration
func (c *Container) GetConfig() *config.Config {
	return c.Config
}

// HasRedis returns true if Redis client is available
func (c *Container) HasRedis() bool {
	return c.RedisClient != nil
}

// HealthChecks returns the connected stores by name
func (c *Container) HealthChecks() map[string]HealthChecker {
	checks := make(map[string]HealthChecker, 3)
	if c.Postgres != nil {
		checks["postgres"] = c.Postgres
	}
	if c.Mongo != nil {
		checks["mongodb"] = c.Mongo
	}
	if c.RedisClient != nil {
		checks["redis"] = c.RedisClient
	}
	return checks
}
