// Package jwtx implements the dual-token codec: short-lived stateless access
// tokens and long-lived refresh tokens, both HS256-signed JWTs carrying a
// username and a role snapshot. The two kinds are signed with distinct
// secrets so one can never stand in for the other.
package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/plannerhq/sessiond/pkg/idx"
)

// Token TTLs. Access tokens are minted freely from a refresh token, so they
// stay short; the refresh token bounds how long a session can survive
// without re-authentication.
const (
	// AccessTokenTTL is the exact lifetime of an access token.
	AccessTokenTTL = 10 * time.Minute

	// RefreshTokenTTL is the exact lifetime of a refresh token.
	RefreshTokenTTL = 7 * 24 * time.Hour
)

// Kind selects which of the two token types is being signed or verified.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// TTL returns the lifetime for this token kind.
func (k Kind) TTL() time.Duration {
	if k == KindRefresh {
		return RefreshTokenTTL
	}
	return AccessTokenTTL
}

// Claims are the claims embedded in both token kinds. The roles slice is a
// snapshot taken at issuance; the store remains the authoritative source and
// the snapshot may lag it by up to one access-token lifetime.
type Claims struct {
	jwt.RegisteredClaims

	// Username for the authenticated principal.
	Username string `json:"username,omitempty"`

	// Roles granted to the principal at issuance time.
	Roles []string `json:"roles,omitempty"`
}

// NewClaims builds claims for a token of the given kind issued at now.
// The jti is a fresh ULID; exp is exactly now+TTL for the kind.
func NewClaims(kind Kind, subject, username string, roles []string, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(kind.TTL())),
			ID:        idx.New().String(),
		},
		Username: username,
		Roles:    roles,
	}
}

// ExpiresIn reports the time remaining until expiry, negative once expired.
func (c Claims) ExpiresIn(now time.Time) time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	return c.ExpiresAt.Sub(now)
}
