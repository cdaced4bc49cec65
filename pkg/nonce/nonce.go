// Package nonce issues and checks action-bound, expiring tokens used to guard
// state-changing admin links. Tokens are HS256 JWTs; single use is enforced by
// recording the token id in a storage.Store.
package nonce

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/platinummonkey/pluginlinks/pkg/storage"
)

// DefaultLifetime matches the host's nonce "tick" window
const DefaultLifetime = 24 * time.Hour

var (
	// ErrInvalid is returned for malformed, forged or expired tokens
	ErrInvalid = errors.New("nonce: invalid token")
	// ErrActionMismatch is returned when a token was issued for another action
	ErrActionMismatch = errors.New("nonce: action mismatch")
	// ErrConsumed is returned when a single-use token is presented again
	ErrConsumed = errors.New("nonce: token already used")
)

// Claims carried by every token
type Claims struct {
	Action string `json:"act"`
	jwt.RegisteredClaims
}

// Signer creates and verifies tokens
type Signer struct {
	key      []byte
	lifetime time.Duration
	now      func() time.Time
	store    storage.Store
	prefix   string
}

// Option configures a Signer
type Option func(*Signer)

// WithLifetime sets how long issued tokens stay valid
func WithLifetime(d time.Duration) Option {
	return func(s *Signer) {
		if d > 0 {
			s.lifetime = d
		}
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *Signer) { s.now = now }
}

// WithStore enables Consume. Used token ids are written under
// prefix+"nonce_used-"+id.
func WithStore(store storage.Store, prefix string) Option {
	return func(s *Signer) {
		s.store = store
		s.prefix = prefix
	}
}

// NewSigner creates a Signer for key
func NewSigner(key []byte, opts ...Option) (*Signer, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("nonce: signing key is required")
	}
	s := &Signer{
		key:      key,
		lifetime: DefaultLifetime,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Create issues a token bound to action
func (s *Signer) Create(action string) (string, error) {
	now := s.now()
	claims := Claims{
		Action: action,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.lifetime)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign nonce: %w", err)
	}
	return token, nil
}

// Verify checks the signature, expiry and action binding of token
func (s *Signer) Verify(token, action string) error {
	_, err := s.parse(token, action)
	return err
}

// Consume verifies token and marks it used. A second Consume of the same
// token fails with ErrConsumed.
func (s *Signer) Consume(ctx context.Context, token, action string) error {
	if s.store == nil {
		return fmt.Errorf("nonce: no store configured for single-use tokens")
	}

	claims, err := s.parse(token, action)
	if err != nil {
		return err
	}

	ttl := claims.ExpiresAt.Time.Sub(s.now())
	if ttl <= 0 {
		return ErrInvalid
	}

	added, err := s.store.Add(ctx, s.usedKey(claims.ID), []byte("1"), ttl)
	if err != nil {
		return fmt.Errorf("failed to record nonce: %w", err)
	}
	if !added {
		return ErrConsumed
	}
	return nil
}

func (s *Signer) parse(token, action string) (*Claims, error) {
	if token == "" {
		return nil, ErrInvalid
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if claims.ID == "" {
		return nil, ErrInvalid
	}
	if claims.Action != action {
		return nil, ErrActionMismatch
	}
	return claims, nil
}

func (s *Signer) usedKey(id string) string {
	return s.prefix + "nonce_used-" + id
}
