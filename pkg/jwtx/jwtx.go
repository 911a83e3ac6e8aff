// Package jwtx issues and verifies the service's HS256 JSON Web Tokens.
//
// Three token kinds share one claim shape: short-lived access tokens presented
// on API requests, long-lived refresh tokens exchanged for new pairs, and
// single-purpose password reset tokens. Refresh tokens are signed with their
// own secret so rotating it invalidates sessions without touching access
// tokens; when no dedicated refresh secret is configured the signing secret is
// shared.
package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/halolight/officehub/pkg/idx"
)

// Kind discriminates the purpose a token was minted for.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
	KindReset   Kind = "reset"
)

// Sentinel verification errors. Callers should branch with errors.Is.
var (
	ErrInvalid   = errors.New("jwtx: invalid token")
	ErrExpired   = errors.New("jwtx: token expired")
	ErrWrongKind = errors.New("jwtx: unexpected token kind")
	ErrIssuer    = errors.New("jwtx: unexpected issuer")
)

// Claims is the payload carried by every token the service signs.
type Claims struct {
	Kind Kind `json:"type"`
	jwt.RegisteredClaims
}

// Config parameterizes a Codec.
type Config struct {
	// Secret signs access and reset tokens. Required.
	Secret []byte
	// RefreshSecret signs refresh tokens. Falls back to Secret when empty.
	RefreshSecret []byte
	// Issuer is stamped into and checked on every token. Optional.
	Issuer string

	AccessTTL  time.Duration
	RefreshTTL time.Duration
	ResetTTL   time.Duration
}

// Codec signs and verifies tokens for all three kinds.
type Codec struct {
	cfg Config
	now func() time.Time
}

// NewCodec validates cfg and builds a Codec.
func NewCodec(cfg Config) (*Codec, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("jwtx: signing secret is required")
	}
	if len(cfg.RefreshSecret) == 0 {
		cfg.RefreshSecret = cfg.Secret
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 || cfg.ResetTTL <= 0 {
		return nil, errors.New("jwtx: token lifetimes must be positive")
	}
	return &Codec{cfg: cfg, now: time.Now}, nil
}

// Issue signs a token of the given kind for subject. The expiry follows the
// configured per-kind lifetime.
func (c *Codec) Issue(kind Kind, subject string) (string, time.Time, error) {
	var ttl time.Duration
	switch kind {
	case KindAccess:
		ttl = c.cfg.AccessTTL
	case KindRefresh:
		ttl = c.cfg.RefreshTTL
	case KindReset:
		ttl = c.cfg.ResetTTL
	default:
		return "", time.Time{}, fmt.Errorf("jwtx: unknown kind %q", kind)
	}

	now := c.now().UTC()
	expires := now.Add(ttl)
	// The jti makes every token unique even for the same subject within the
	// same second; refresh token fingerprints depend on this.
	claims := Claims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        idx.New().String(),
			Subject:   subject,
			Issuer:    c.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secretFor(kind))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", kind, err)
	}
	return signed, expires, nil
}

// Verify parses token, checks the HS256 signature against the secret for the
// expected kind and enforces expiry, issuer and kind. The parsed claims are
// returned on success.
func (c *Codec) Verify(token string, kind Kind) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return c.secretFor(kind), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return c.now() }),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpired
	case err != nil:
		return nil, ErrInvalid
	case !parsed.Valid:
		return nil, ErrInvalid
	}

	if claims.Kind != kind {
		return nil, ErrWrongKind
	}
	if c.cfg.Issuer != "" && claims.Issuer != c.cfg.Issuer {
		return nil, ErrIssuer
	}
	return claims, nil
}

func (c *Codec) secretFor(kind Kind) []byte {
	if kind == KindRefresh {
		return c.cfg.RefreshSecret
	}
	return c.cfg.Secret
}
