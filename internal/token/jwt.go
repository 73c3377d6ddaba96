package token

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the JWT claim set
type Claims struct {
	User Identity `json:"user"`
	jwt.RegisteredClaims
}

// JWTCodec signs tokens with an HMAC algorithm
type JWTCodec struct {
	method jwt.SigningMethod
	secret []byte
	cfg    Config
	opts   options
}

func newJWTCodec(cfg Config, o options) (*JWTCodec, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("jwt secret is required")
	}

	method := jwt.GetSigningMethod(cfg.Algorithm)
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unsupported jwt algorithm %q", cfg.Algorithm)
	}

	return &JWTCodec{method: method, secret: cfg.Secret, cfg: cfg, opts: o}, nil
}

func (c *JWTCodec) Issue(identity Identity) (*Token, error) {
	issuedAt, expiresAt := issueTimes(c.opts.now(), c.cfg.TTL)

	claims := Claims{
		User: identity,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID.String(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &Token{AccessToken: signed, TokenType: TypeBearer}, nil
}

func (c *JWTCodec) Verify(tokenStr string) (*Identity, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(tokenStr, claims,
		func(t *jwt.Token) (any, error) {
			return c.secret, nil
		},
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithTimeFunc(c.opts.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	if err := claims.User.Validate(); err != nil {
		return nil, ErrTokenInvalid
	}
	if claims.Subject != claims.User.ID.String() {
		return nil, ErrTokenInvalid
	}

	identity := claims.User
	return &identity, nil
}
