package domain

import "time"

// UserProfile represents the authenticated caller as described by the auth provider token
type UserProfile struct {
	Sub           string `json:"sub"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Issuer        string `json:"iss"`
}

// RateLimitInfo represents rate limiting information for one client and scope
type RateLimitInfo struct {
	Scope        string        `json:"scope"`
	RequestCount int64         `json:"request_count"`
	Limit        int64         `json:"limit"`
	WindowStart  time.Time     `json:"window_start"`
	TTL          time.Duration `json:"ttl"`
	IsAllowed    bool          `json:"is_allowed"`
}

// Remaining returns how many requests are left in the current window
func (r *RateLimitInfo) Remaining() int64 {
	if r.RequestCount >= r.Limit {
		return 0
	}
	return r.Limit - r.RequestCount
}
