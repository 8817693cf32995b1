// Package token issues and verifies the signed session tokens handed out
// after a successful credential check. Verification is stateless.
package token

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/clipcoins/clipcoins-api/internal/core/domain"
)

const (
	// DefaultTTL is the lifetime of a session token.
	DefaultTTL = 24 * time.Hour
	// KeySize is the length of a generated signing key in bytes.
	KeySize = 32

	bearerPrefix = "Bearer "
)

// Claims is the payload of a session token.
type Claims struct {
	jwt.RegisteredClaims
	UserID int64  `json:"userId"`
	Role   string `json:"role"`
}

// Issuer signs and verifies HS256 session tokens with a key fixed at
// construction.
type Issuer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// Option configures an Issuer.
type Option func(*Issuer)

// WithClock overrides the time source used for iat/exp and validation.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) { i.now = now }
}

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(i *Issuer) {
		if ttl > 0 {
			i.ttl = ttl
		}
	}
}

// NewIssuer builds an Issuer around key. The key is copied and never
// mutated afterwards; replacing it means building a new Issuer, which
// invalidates every token signed with the old one.
func NewIssuer(key []byte, opts ...Option) (*Issuer, error) {
	if len(key) == 0 {
		return nil, errors.New("token: signing key is empty")
	}
	i := &Issuer{
		key: append([]byte(nil), key...),
		ttl: DefaultTTL,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// GenerateKey returns KeySize random bytes for use as a signing key.
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("token: generate key: %w", err)
	}
	return key, nil
}

// Issue signs a token for the identity's current name, id and role.
func (i *Issuer) Issue(identity *domain.Identity) (*domain.SessionToken, error) {
	now := i.now()
	expiresAt := now.Add(i.ttl)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.DisplayName,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.New().String(),
		},
		UserID: identity.ID,
		Role:   identity.Role.String(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return nil, fmt.Errorf("token: sign: %w", err)
	}
	return &domain.SessionToken{Value: signed, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// Verify checks the signature and expiry of raw and returns the snapshot it
// asserts. Failures are domain.ErrTokenSignature, domain.ErrTokenExpired or
// domain.ErrTokenMalformed.
func (i *Issuer) Verify(raw string) (*domain.IdentitySnapshot, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return i.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return nil, domain.ErrTokenSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, domain.ErrTokenExpired
	default:
		return nil, fmt.Errorf("%w: %v", domain.ErrTokenMalformed, err)
	}

	role, err := domain.ParseRole(claims.Role)
	if err != nil || claims.Subject == "" {
		return nil, domain.ErrTokenMalformed
	}
	return &domain.IdentitySnapshot{
		ID:          claims.UserID,
		DisplayName: claims.Subject,
		Role:        role,
	}, nil
}

// ExtractFromHeader strips the "Bearer " prefix from an Authorization
// header value. ok is false when the prefix is missing or nothing follows it.
func ExtractFromHeader(header string) (raw string, ok bool) {
	raw, ok = strings.CutPrefix(header, bearerPrefix)
	if !ok || raw == "" {
		return "", false
	}
	return raw, true
}
