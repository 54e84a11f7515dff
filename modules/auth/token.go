package auth

import (
	"errors"
	"fmt"
	"log"
	"time"

	domain "github.com/example/task-tracker/domain/user"
	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned for every token that does not verify,
	// whatever the underlying reason.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrTokenIssue is returned when a token cannot be signed. It indicates
	// misconfiguration and is not retried.
	ErrTokenIssue = errors.New("failed to generate token")
	// ErrMissingSecret is returned when the token secret is empty.
	ErrMissingSecret = errors.New("token secret is not configured")
)

// TokenConfig holds token signing configuration.
type TokenConfig struct {
	Secret    string
	ExpiresIn time.Duration
	Issuer    string
}

// DefaultTokenConfig returns a default token configuration.
// In production, the secret should be loaded from the environment.
func DefaultTokenConfig() TokenConfig {
	return TokenConfig{
		Secret:    "change-me-in-production",
		ExpiresIn: 24 * time.Hour,
		Issuer:    "task-tracker",
	}
}

// tokenClaims represents the custom claims carried by identity tokens.
type tokenClaims struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies signed, expiring identity tokens.
// It holds no state beyond its configuration.
type TokenService struct {
	config TokenConfig
	now    func() time.Time
}

// NewTokenService creates a new TokenService with the given configuration.
func NewTokenService(config TokenConfig) (*TokenService, error) {
	if config.Secret == "" {
		return nil, ErrMissingSecret
	}
	if config.ExpiresIn <= 0 {
		return nil, fmt.Errorf("token expiry must be positive, got %s", config.ExpiresIn)
	}
	return &TokenService{
		config: config,
		now:    time.Now,
	}, nil
}

// Issue produces a signed token encoding the identity.
func (s *TokenService) Issue(identity domain.Identity) (string, error) {
	now := s.now()
	claims := tokenClaims{
		UserID:   identity.UserID,
		Username: identity.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   identity.UserID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.ExpiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		log.Printf("[auth] Token signing failed: %v", err)
		return "", fmt.Errorf("%w: %v", ErrTokenIssue, err)
	}
	return signed, nil
}

// Verify returns the identity encoded in the token. Any malformed, unsigned,
// wrong-secret or expired token yields ErrInvalidToken; the reason is only
// logged.
func (s *TokenService) Verify(tokenString string) (domain.Identity, error) {
	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return []byte(s.config.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		log.Printf("[auth] Token rejected: %s", rejectReason(err))
		return domain.Identity{}, ErrInvalidToken
	}
	if !token.Valid || claims.UserID == "" {
		log.Printf("[auth] Token rejected: missing identity claims")
		return domain.Identity{}, ErrInvalidToken
	}

	return domain.Identity{
		UserID:   claims.UserID,
		Username: claims.Username,
	}, nil
}

// ExpiresIn returns the configured token lifetime.
func (s *TokenService) ExpiresIn() time.Duration {
	return s.config.ExpiresIn
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "expired"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "signature mismatch"
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return "unverifiable"
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "malformed"
	default:
		return err.Error()
	}
}
