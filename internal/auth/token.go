// ABOUTME: Single-active admin token issuance and validation
// ABOUTME: Uses HS256 signed JWTs with the jti claim pinning the current token

package auth

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token errors
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// adminSubject is the sub claim stamped on every admin token.
const adminSubject = "admin"

// TokenStore issues and validates admin tokens. At most one token is valid at
// a time: Issue discards the previous token by remembering only the newest
// jti. All state is in-process and volatile.
type TokenStore struct {
	secret []byte
	ttl    time.Duration

	mu         sync.Mutex
	currentJTI string
}

// NewTokenStore creates a TokenStore signing with the given secret.
// Tokens expire after ttl.
func NewTokenStore(secret []byte, ttl time.Duration) *TokenStore {
	return &TokenStore{
		secret: secret,
		ttl:    ttl,
	}
}

// Issue generates, signs and installs a new admin token, invalidating any
// previously issued token.
func (s *TokenStore) Issue() (string, error) {
	now := time.Now()
	jti := uuid.New().String()
	claims := jwt.MapClaims{
		"sub": adminSubject,
		"iat": now.Unix(),
		"exp": now.Add(s.ttl).Unix(),
		"jti": jti,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}

	s.mu.Lock()
	s.currentJTI = jti
	s.mu.Unlock()

	return token, nil
}

// Validate reports whether candidate is the currently valid admin token.
// A structurally valid but replaced token is rejected.
func (s *TokenStore) Validate(candidate string) bool {
	return s.verify(candidate) == nil
}

// verify returns nil if candidate is the current token, or a descriptive
// error otherwise.
func (s *TokenStore) verify(candidate string) error {
	token, err := jwt.Parse(candidate, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrExpiredToken
		}
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ErrInvalidToken
	}
	if sub, _ := claims["sub"].(string); sub != adminSubject {
		return ErrInvalidToken
	}

	jti, _ := claims["jti"].(string)

	s.mu.Lock()
	current := s.currentJTI
	s.mu.Unlock()

	if current == "" || jti != current {
		return ErrInvalidToken
	}
	return nil
}

// Revoke discards the current token so that nothing validates until the next
// Issue. Used when the admin identity changes at runtime.
func (s *TokenStore) Revoke() {
	s.mu.Lock()
	s.currentJTI = ""
	s.mu.Unlock()
}
