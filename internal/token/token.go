// Package token issues and verifies signed, expiring bearer tokens that
// carry a snapshot of the authenticated user.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const TypeBearer = "bearer"

var (
	ErrTokenInvalid = errors.New("invalid token")
	ErrTokenExpired = errors.New("token has expired")
)

// Identity is the user snapshot embedded in every token
type Identity struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
}

// Validate checks a snapshot decoded from a token
func (i Identity) Validate() error {
	if i.ID == uuid.Nil {
		return errors.New("identity id is required")
	}
	if i.Email == "" {
		return errors.New("identity email is required")
	}
	return nil
}

// Token is the issued access token as returned to clients
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Codec issues and verifies tokens.
// Implementations are safe for concurrent use.
type Codec interface {
	Issue(identity Identity) (*Token, error)
	Verify(tokenStr string) (*Identity, error)
}

// Config selects the signing algorithm, secret and token lifetime
type Config struct {
	Algorithm string
	Secret    []byte
	TTL       time.Duration
}

type options struct {
	now func() time.Time
}

// Option customises a codec
type Option func(*options)

// WithClock replaces time.Now, mostly for tests
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// NewCodec returns the codec matching cfg.Algorithm: HS256, HS384 and HS512
// produce JWTs, v4.local produces PASETO tokens.
func NewCodec(cfg Config, opts ...Option) (Codec, error) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", cfg.TTL)
	}

	switch cfg.Algorithm {
	case "HS256", "HS384", "HS512":
		return newJWTCodec(cfg, o)
	case "v4.local":
		return newPasetoCodec(cfg, o)
	default:
		return nil, fmt.Errorf("unsupported token algorithm %q", cfg.Algorithm)
	}
}

// issueTimes returns issued-at truncated to whole seconds and the expiry,
// so exp - iat is exactly ttl on the wire.
func issueTimes(now time.Time, ttl time.Duration) (time.Time, time.Time) {
	issuedAt := now.Truncate(time.Second)
	return issuedAt, issuedAt.Add(ttl)
}
