package redis

import "fmt"

// KeyBuilder provides environment-aware Redis key building functionality
type KeyBuilder struct {
	prefix string // Environment prefix (staging/prod)
}

// NewKeyBuilder creates a new key builder with environment-based prefix
func NewKeyBuilder(environment string) *KeyBuilder {
	prefix := "prod"
	if environment == "development" || environment == "staging" {
		prefix = "staging"
	}

	return &KeyBuilder{prefix: prefix}
}

// BuildKey constructs a Redis key with the environment prefix
func (kb *KeyBuilder) BuildKey(key string) string {
	return fmt.Sprintf("%s:%s", kb.prefix, key)
}

// GetPrefix returns the current environment prefix
func (kb *KeyBuilder) GetPrefix() string {
	return kb.prefix
}

// KeyAnalytics is the cached analytics of a poll at a given response count
func (kb *KeyBuilder) KeyAnalytics(pollID string, responseCount int) string {
	return kb.BuildKey(fmt.Sprintf(KeyAnalytics, pollID, responseCount))
}

// KeyAnalyticsPattern matches every cached analytics entry of a poll
func (kb *KeyBuilder) KeyAnalyticsPattern(pollID string) string {
	return kb.BuildKey(fmt.Sprintf(KeyAnalyticsPattern, pollID))
}

func (kb *KeyBuilder) KeyRateLimit(scope, ipHash string) string {
	return kb.BuildKey(fmt.Sprintf(KeyRateLimit, scope, ipHash))
}

func (kb *KeyBuilder) KeyProfileBySlug(slug string) string {
	return kb.BuildKey(fmt.Sprintf(KeyProfileBySlug, slug))
}
