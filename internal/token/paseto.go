package token

import (
	"fmt"

	"aidanwoods.dev/go-paseto"
	"github.com/google/uuid"
)

// PasetoCodec encrypts tokens as PASETO v4.local
// (symmetric encryption with XChaCha20-Poly1305)
type PasetoCodec struct {
	symmetricKey paseto.V4SymmetricKey
	cfg          Config
	opts         options
}

func newPasetoCodec(cfg Config, o options) (*PasetoCodec, error) {
	if len(cfg.Secret) != 32 {
		return nil, fmt.Errorf("symmetric key must be exactly 32 bytes, got %d", len(cfg.Secret))
	}

	key, err := paseto.V4SymmetricKeyFromBytes(cfg.Secret)
	if err != nil {
		return nil, fmt.Errorf("failed to create symmetric key: %w", err)
	}

	return &PasetoCodec{symmetricKey: key, cfg: cfg, opts: o}, nil
}

func (c *PasetoCodec) Issue(identity Identity) (*Token, error) {
	issuedAt, expiresAt := issueTimes(c.opts.now(), c.cfg.TTL)

	t := paseto.NewToken()
	t.SetIssuedAt(issuedAt)
	t.SetNotBefore(issuedAt)
	t.SetExpiration(expiresAt)
	t.SetSubject(identity.ID.String())
	t.SetJti(uuid.NewString())
	if err := t.Set("user", identity); err != nil {
		return nil, fmt.Errorf("set user claim: %w", err)
	}

	return &Token{AccessToken: t.V4Encrypt(c.symmetricKey, nil), TokenType: TypeBearer}, nil
}

func (c *PasetoCodec) Verify(tokenStr string) (*Identity, error) {
	// Time rules are checked below against the codec clock
	parser := paseto.NewParserWithoutExpiryCheck()

	t, err := parser.ParseV4Local(c.symmetricKey, tokenStr, nil)
	if err != nil {
		return nil, ErrTokenInvalid
	}

	expiresAt, err := t.GetExpiration()
	if err != nil {
		return nil, ErrTokenInvalid
	}
	notBefore, err := t.GetNotBefore()
	if err != nil {
		return nil, ErrTokenInvalid
	}

	now := c.opts.now()
	if !now.Before(expiresAt) {
		return nil, ErrTokenExpired
	}
	if now.Before(notBefore) {
		return nil, ErrTokenInvalid
	}

	var identity Identity
	if err := t.Get("user", &identity); err != nil {
		return nil, ErrTokenInvalid
	}
	if err := identity.Validate(); err != nil {
		return nil, ErrTokenInvalid
	}

	subject, err := t.GetSubject()
	if err != nil || subject != identity.ID.String() {
		return nil, ErrTokenInvalid
	}

	return &identity, nil
}
