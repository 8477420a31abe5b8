package auth

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"google.golang.org/api/idtoken"

	"truefeedback/internal/domain"
	"truefeedback/internal/service"
	"truefeedback/pkg/errors"
	"truefeedback/pkg/logger"
)

// idTokenValidator matches idtoken.Validate
type idTokenValidator func(ctx context.Context, token, audience string) (*idtoken.Payload, error)

// Service implements the AuthService interface. It only verifies tokens; issuing
// them is the auth provider's job.
type Service struct {
	jwtSecret      []byte
	jwtIssuer      string
	googleClientID string
	validateGoogle idTokenValidator
	logger         *logger.Logger
}

// NewService creates a new auth service. Either jwtSecret or googleClientID may be empty,
// which disables that kind of token.
func NewService(jwtSecret, jwtIssuer, googleClientID string, logger *logger.Logger) service.AuthService {
	return &Service{
		jwtSecret:      []byte(jwtSecret),
		jwtIssuer:      jwtIssuer,
		googleClientID: googleClientID,
		validateGoogle: idtoken.Validate,
		logger:         logger,
	}
}

// VerifyToken dispatches on the token's signing algorithm: HS256 tokens come from the
// auth provider, RS256 tokens are Google ID tokens
func (s *Service) VerifyToken(ctx context.Context, token string) (*domain.UserProfile, error) {
	if !isJWTToken(token) {
		s.logger.Debug("Unrecognized token format")
		return nil, errors.NewAuthenticationError("Unrecognized token format")
	}

	unverified, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return nil, errors.NewAuthenticationError("Invalid token")
	}

	switch alg, _ := unverified.Header["alg"].(string); alg {
	case jwt.SigningMethodHS256.Alg():
		return s.verifyProviderJWT(token)
	case "RS256":
		return s.verifyGoogleIDToken(ctx, token)
	default:
		s.logger.WithField("alg", alg).Warn("Rejected token with unsupported algorithm")
		return nil, errors.NewAuthenticationError("Unsupported token algorithm")
	}
}

// verifyProviderJWT checks signature, expiry and issuer of an HS256 token
func (s *Service) verifyProviderJWT(tokenString string) (*domain.UserProfile, error) {
	if len(s.jwtSecret) == 0 {
		s.logger.Error("JWT_SECRET not configured")
		return nil, errors.NewAuthenticationError("JWT validation not configured")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if s.jwtIssuer != "" {
		opts = append(opts, jwt.WithIssuer(s.jwtIssuer))
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, opts...)
	if err != nil || !token.Valid {
		s.logger.WithError(err).Debug("Failed to validate JWT token")
		if stderrors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.NewAuthenticationError("Token has expired")
		}
		return nil, errors.NewAuthenticationError("Invalid JWT token")
	}

	profile := &domain.UserProfile{
		Sub:           getStringValue(claims, "sub"),
		Email:         getStringValue(claims, "email"),
		EmailVerified: getBoolValue(claims, "email_verified"),
		Name:          getStringValue(claims, "name"),
		Picture:       getStringValue(claims, "picture"),
		Issuer:        getStringValue(claims, "iss"),
	}

	if userMeta, ok := claims["user_metadata"].(map[string]interface{}); ok {
		if profile.Name == "" {
			profile.Name = getStringValue(userMeta, "name")
		}
		if profile.Picture == "" {
			profile.Picture = getStringValue(userMeta, "avatar_url")
		}
	}

	if profile.Sub == "" {
		s.logger.Error("No user identifier found in JWT token")
		return nil, errors.NewAuthenticationError("Invalid JWT token: no user identifier")
	}

	s.logger.WithField("user_id", profile.Sub).Debug("JWT token validated successfully")
	return profile, nil
}

// verifyGoogleIDToken checks a Google ID token against our client id
func (s *Service) verifyGoogleIDToken(ctx context.Context, token string) (*domain.UserProfile, error) {
	if s.googleClientID == "" {
		s.logger.Error("GOOGLE_CLIENT_ID not configured")
		return nil, errors.NewAuthenticationError("Google sign-in not configured")
	}

	payload, err := s.validateGoogle(ctx, token, s.googleClientID)
	if err != nil {
		s.logger.WithError(err).Debug("Failed to validate Google ID token")
		return nil, errors.NewAuthenticationError("Invalid or expired Google token")
	}

	profile := &domain.UserProfile{
		Sub:           payload.Subject,
		Email:         getStringValue(payload.Claims, "email"),
		EmailVerified: getBoolValue(payload.Claims, "email_verified"),
		Name:          getStringValue(payload.Claims, "name"),
		Picture:       getStringValue(payload.Claims, "picture"),
		Issuer:        payload.Issuer,
	}
	if profile.Sub == "" {
		return nil, errors.NewAuthenticationError("Invalid token: no user identifier")
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id":        profile.Sub,
		"email_verified": profile.EmailVerified,
	}).Debug("Google ID token validated successfully")
	return profile, nil
}

func isJWTToken(token string) bool {
	// JWT tokens have exactly 3 non-empty segments separated by dots
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
	}
	return true
}

// Helper functions to safely extract values from claim maps
func getStringValue(m map[string]interface{}, key string) string {
	if val, ok := m[key].(string); ok {
		return val
	}
	return ""
}

func getBoolValue(m map[string]interface{}, key string) bool {
	switch val := m[key].(type) {
	case bool:
		return val
	case string:
		// Google sends email_verified as "true" in some token versions
		return val == "true"
	}
	return false
}

