package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/plannerhq/sessiond/internal/session/domain"
	"github.com/plannerhq/sessiond/internal/session/store"
	"github.com/plannerhq/sessiond/pkg/cryptox"
	"github.com/plannerhq/sessiond/pkg/idx"
	"github.com/plannerhq/sessiond/pkg/jwtx"
)

const (
	minUsernameLength = 3
	minPasswordLength = 8
)

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrAccountExists      = errors.New("account_exists")
	ErrInvalidArgument    = errors.New("invalid_argument")
)

// AccountService handles sign-up, sign-in and sign-out. Sign-in records the
// new refresh token's jti, displacing whatever session was live before;
// there is only ever one active refresh token per principal.
type AccountService struct {
	Codec *jwtx.Codec
	Store store.Store
}

func (s *AccountService) SignUp(ctx context.Context, username, email, password string) (domain.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if len(username) < minUsernameLength {
		return domain.User{}, fmt.Errorf("%w: username too short", ErrInvalidArgument)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return domain.User{}, fmt.Errorf("%w: invalid email", ErrInvalidArgument)
	}
	if len(password) < minPasswordLength {
		return domain.User{}, fmt.Errorf("%w: password too short", ErrInvalidArgument)
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.User{}, err
	}

	u := domain.User{
		ID:           idx.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, u); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrAccountExists
			}
			return err
		}
		return tx.Roles().GrantRole(ctx, u.ID, domain.RoleUser)
	})
	if err != nil {
		return domain.User{}, err
	}

	return u, nil
}

// SignIn checks credentials and issues a fresh token pair. The new refresh
// token's jti is recorded unconditionally: a concurrent sign-in for the
// same principal races and the last write wins, which still leaves exactly
// one jti current.
func (s *AccountService) SignIn(ctx context.Context, email, password string) (*domain.TokenPair, domain.User, error) {
	u, err := s.Store.Users().GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domain.User{}, ErrInvalidCredentials
		}
		return nil, domain.User{}, err
	}

	if err := cryptox.VerifyPassword(password, u.PasswordHash); err != nil {
		return nil, domain.User{}, ErrInvalidCredentials
	}

	roles, err := s.Store.Roles().GetUserRoles(ctx, u.ID)
	if err != nil {
		return nil, domain.User{}, err
	}

	refresh, refreshClaims, err := s.Codec.Issue(jwtx.KindRefresh, u.ID, u.Username, roles)
	if err != nil {
		return nil, domain.User{}, fmt.Errorf("issue refresh token: %w", err)
	}
	access, _, err := s.Codec.Issue(jwtx.KindAccess, u.ID, u.Username, roles)
	if err != nil {
		return nil, domain.User{}, fmt.Errorf("issue access token: %w", err)
	}

	if err := s.Store.Sessions().SetRefreshJTI(ctx, u.ID, refreshClaims.ID); err != nil {
		return nil, domain.User{}, err
	}

	return &domain.TokenPair{AccessToken: access, RefreshToken: refresh}, u, nil
}

// SignOut clears the recorded jti for the token's principal. An expired
// refresh token is still honoured here: clearing a session that could no
// longer refresh anyway is harmless, and it lets a long-idle client log
// out cleanly.
func (s *AccountService) SignOut(ctx context.Context, refreshToken string) error {
	claims, err := s.Codec.Verify(jwtx.KindRefresh, refreshToken)
	if errors.Is(err, jwtx.ErrExpired) {
		claims, err = jwtx.Decode(refreshToken)
	}
	if err != nil {
		return jwtx.ErrInvalid
	}
	if claims.Subject == "" {
		return jwtx.ErrInvalid
	}

	if err := s.Store.Sessions().SetRefreshJTI(ctx, claims.Subject, ""); err != nil {
		// A deleted account has nothing left to revoke.
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}
	return nil
}
