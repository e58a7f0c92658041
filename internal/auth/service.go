package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const defaultTokenTTL = 12 * time.Hour

var (
	errAuthSecretRequired   = errors.New("auth service: session secret is required")
	errAuthPasswordRequired = errors.New("auth service: password lookup is required")

	// ErrInvalidCredentials indicates the supplied password does not match.
	ErrInvalidCredentials = errors.New("auth service: invalid credentials")
	// ErrInvalidToken indicates the session token failed verification.
	ErrInvalidToken = errors.New("auth service: invalid token")
)

// PasswordLookup returns the configured admin password. An empty password
// disables login entirely.
type PasswordLookup func(ctx context.Context) string

// ServiceDeps bundles constructor inputs for the auth service.
type ServiceDeps struct {
	Secret   string
	Password PasswordLookup
	TokenTTL time.Duration
	Clock    func() time.Time
}

// Service issues and verifies admin session tokens. A single shared password
// guards the console; tokens are HS256 JWTs with a bounded lifetime.
type Service struct {
	secret   []byte
	password PasswordLookup
	ttl      time.Duration
	now      func() time.Time
}

// NewService constructs the auth service.
func NewService(deps ServiceDeps) (*Service, error) {
	if deps.Secret == "" {
		return nil, errAuthSecretRequired
	}
	if deps.Password == nil {
		return nil, errAuthPasswordRequired
	}
	ttl := deps.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		secret:   []byte(deps.Secret),
		password: deps.Password,
		ttl:      ttl,
		now:      func() time.Time { return clock().UTC() },
	}, nil
}

// Login checks the password and returns a signed session token.
func (s *Service) Login(ctx context.Context, password string) (string, error) {
	configured := s.password(ctx)
	if configured == "" {
		return "", ErrInvalidCredentials
	}
	if subtle.ConstantTimeCompare([]byte(configured), []byte(password)) != 1 {
		return "", ErrInvalidCredentials
	}

	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   "admin",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth service: signing token: %w", err)
	}
	return signed, nil
}

// Verify checks a session token's signature and expiry.
func (s *Service) Verify(tokenString string) error {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	claims := &jwt.RegisteredClaims{}
	_, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject != "admin" {
		return ErrInvalidToken
	}
	return nil
}
