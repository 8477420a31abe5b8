package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends for polls
const (
	StorePostgres = "postgres"
	StoreMongo    = "mongo"
)

const defaultSlugSalt = "truefeedback-dev-salt"

// Config holds all configuration values for the application
type Config struct {
	Port              string
	AllowedOrigins    []string
	LogLevel          string
	LogConsole        bool // human readable logs instead of JSON
	Environment       string
	DatabaseURL       string
	RedisURL          string
	StoreBackend      string // postgres or mongo; profiles and messages always live in Postgres
	MongoURL          string
	MongoDatabase     string
	JWTSecret         string // HS256 secret shared with the auth provider
	JWTIssuer         string
	GoogleClientID    string
	SlugSalt          string // HMAC key for poll slugs and client IP hashes
	SubmitRateLimit   int64
	RateLimitWindow   time.Duration
	AnalyticsCacheTTL time.Duration
	RequestTimeout    time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		AllowedOrigins:    parseOrigins(getEnv("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		Environment:       getEnv("ENVIRONMENT", "production"),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		RedisURL:          getEnv("REDIS_URL", ""),
		StoreBackend:      strings.ToLower(getEnv("STORE_BACKEND", StorePostgres)),
		MongoURL:          getEnv("MONGO_URL", ""),
		MongoDatabase:     getEnv("MONGO_DATABASE", "truefeedback"),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		JWTIssuer:         getEnv("JWT_ISSUER", ""),
		GoogleClientID:    getEnv("GOOGLE_CLIENT_ID", ""),
		SlugSalt:          getEnv("SLUG_SALT", defaultSlugSalt),
		SubmitRateLimit:   getIntEnv("SUBMIT_RATE_LIMIT", 30),
		RateLimitWindow:   getDurationEnv("RATE_LIMIT_WINDOW", time.Hour),
		AnalyticsCacheTTL: getDurationEnv("ANALYTICS_CACHE_TTL", 10*time.Minute),
		RequestTimeout:    getDurationEnv("REQUEST_TIMEOUT", 30*time.Second),
	}

	cfg.LogConsole = getBoolEnv("LOG_CONSOLE", cfg.Environment == "development")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the settings fit together
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	switch c.StoreBackend {
	case StorePostgres:
	case StoreMongo:
		if c.MongoURL == "" {
			return fmt.Errorf("MONGO_URL is required when STORE_BACKEND=%s", StoreMongo)
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q (want %s or %s)", c.StoreBackend, StorePostgres, StoreMongo)
	}
	if c.JWTSecret == "" && c.GoogleClientID == "" {
		return fmt.Errorf("JWT_SECRET or GOOGLE_CLIENT_ID must be set")
	}
	if c.IsProduction() && c.SlugSalt == defaultSlugSalt {
		return fmt.Errorf("SLUG_SALT must be set in production")
	}
	if c.SubmitRateLimit <= 0 {
		return fmt.Errorf("SUBMIT_RATE_LIMIT must be positive")
	}
	return nil
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// parseOrigins parses comma-separated origins into a slice
func parseOrigins(origins string) []string {
	if origins == "" {
		return []string{}
	}

	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))

	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// getIntEnv gets an integer environment variable with a fallback value
func getIntEnv(key string, fallback int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

// getDurationEnv accepts Go durations ("90s", "1h")
func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

// getBoolEnv gets a boolean environment variable with a fallback value
func getBoolEnv(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}
