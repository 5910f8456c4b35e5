package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrExpired reports a token whose signature checked out but whose exp
	// has passed. Callers treat this as recoverable (refresh the session).
	ErrExpired = errors.New("jwtx: token expired")

	// ErrInvalid reports a token that fails signature verification, is
	// malformed, or is missing a subject. Not recoverable.
	ErrInvalid = errors.New("jwtx: token invalid")

	// ErrNoSecret reports a missing signing secret at construction time.
	ErrNoSecret = errors.New("jwtx: signing secret must not be empty")
)

// Codec signs, verifies and decodes both token kinds. Pure and stateless;
// safe for concurrent use.
type Codec struct {
	accessSecret  []byte
	refreshSecret []byte
}

// NewCodec builds a codec from the two kind-specific secrets. Both secrets
// are required; a service must refuse to start without them.
func NewCodec(accessSecret, refreshSecret string) (*Codec, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, ErrNoSecret
	}
	return &Codec{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
	}, nil
}

func (c *Codec) secret(kind Kind) []byte {
	if kind == KindRefresh {
		return c.refreshSecret
	}
	return c.accessSecret
}

// Issue mints a token of the given kind issued at the current time and
// returns both the compact form and the claims it carries (the caller
// usually needs the jti).
func (c *Codec) Issue(kind Kind, subject, username string, roles []string) (string, Claims, error) {
	return c.IssueAt(kind, subject, username, roles, time.Now().UTC())
}

// IssueAt is Issue with an explicit issuance time.
func (c *Codec) IssueAt(kind Kind, subject, username string, roles []string, now time.Time) (string, Claims, error) {
	claims := NewClaims(kind, subject, username, roles, now)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret(kind))
	if err != nil {
		return "", Claims{}, fmt.Errorf("jwtx: sign %s token: %w", kind, err)
	}
	return token, claims, nil
}

// Verify checks the signature and expiry of a token of the given kind.
// Expiry is reported as ErrExpired, every other failure (bad signature,
// malformed payload, missing subject, wrong kind) as ErrInvalid, so callers
// can tell the recoverable case apart.
func (c *Codec) Verify(kind Kind, token string) (Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return c.secret(kind), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrExpired
		}
		return Claims{}, ErrInvalid
	}

	if claims.Subject == "" {
		return Claims{}, ErrInvalid
	}

	return claims, nil
}

// Decode parses claims without checking the signature. Only for reading
// claims from a token already known to be authentic in context, or for
// best-effort display. Never an authorization check.
func Decode(token string) (Claims, error) {
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return Claims{}, ErrInvalid
	}
	return claims, nil
}
