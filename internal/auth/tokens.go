// Package auth issues and verifies session tokens, gates operations by role
// and manages account registration and login.
package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/erazemk/sladkarije/internal/model"
)

// DefaultTokenTTL is the default token lifetime.
const DefaultTokenTTL = 24 * time.Hour

// Claims represents the JWT claims. The subject is the username.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Identity is a verified token holder.
type Identity struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Tokens issues and verifies signed, stateless session tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// TokenOption configures Tokens.
type TokenOption func(*Tokens)

// WithTTL sets the token lifetime. A zero TTL issues tokens that are already
// expired.
func WithTTL(ttl time.Duration) TokenOption {
	return func(t *Tokens) { t.ttl = ttl }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) TokenOption {
	return func(t *Tokens) { t.now = now }
}

// NewTokens returns a token service signing with secret.
func NewTokens(secret string, opts ...TokenOption) (*Tokens, error) {
	if secret == "" {
		return nil, errors.New("token secret must not be empty")
	}
	t := &Tokens{
		secret: []byte(secret),
		ttl:    DefaultTokenTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.ttl < 0 {
		return nil, fmt.Errorf("token ttl must not be negative: %s", t.ttl)
	}
	return t, nil
}

// Issue creates a token for username with the given role.
func (t *Tokens) Issue(username, role string) (string, error) {
	now := t.now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify checks the token signature and expiry. Every failure returns
// model.ErrInvalidToken; the cause is only logged.
func (t *Tokens) Verify(tokenStr string) (Identity, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		slog.Debug("token rejected", "error", err)
		return Identity{}, model.ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" || !model.ValidRole(claims.Role) {
		slog.Debug("token rejected", "error", "bad claims")
		return Identity{}, model.ErrInvalidToken
	}

	return Identity{Username: claims.Subject, Role: claims.Role}, nil
}
