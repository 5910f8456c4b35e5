package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/plannerhq/sessiond/internal/session/domain"
	"github.com/plannerhq/sessiond/internal/session/store"
	"github.com/plannerhq/sessiond/pkg/jwtx"
)

var (
	// ErrRevoked reports a refresh token that verifies cryptographically
	// but whose jti is no longer the one recorded for the principal: it was
	// displaced by sign-out, a later sign-in, or a renewal.
	ErrRevoked = errors.New("revoked_refresh_token")

	// ErrRolesUnchanged reports a renewal attempt when the authoritative
	// roles still match the token's snapshot. Renewal is only for picking
	// up role changes; the cheap refresh path covers everything else.
	ErrRolesUnchanged = errors.New("roles_unchanged")
)

// Authority orchestrates issuance, verification and rotation of the two
// token kinds. The refresh path is stateless; only Renew and Revoke touch
// the store, each as a short transaction scoped to one principal.
type Authority struct {
	Codec *jwtx.Codec
	Store store.Store
}

// Verify checks an access token. ErrExpired and ErrInvalid pass through
// from the codec so callers can tell the recoverable case apart.
func (a *Authority) Verify(accessToken string) (jwtx.Claims, error) {
	return a.Codec.Verify(jwtx.KindAccess, accessToken)
}

// Refresh is the fast path: it verifies the refresh token's signature and
// expiry and mints a new access token carrying the same role snapshot. It
// never reads or writes the store and never rotates the refresh token, so
// it is cheap enough to run every access-token lifetime.
func (a *Authority) Refresh(refreshToken string) (string, error) {
	claims, err := a.Codec.Verify(jwtx.KindRefresh, refreshToken)
	if err != nil {
		return "", err
	}

	access, _, err := a.Codec.Issue(jwtx.KindAccess, claims.Subject, claims.Username, claims.Roles)
	if err != nil {
		return "", fmt.Errorf("issue access token: %w", err)
	}
	return access, nil
}

// RolesStale reports whether the role snapshot inside verified refresh
// claims has fallen behind the authoritative roles in the store. Not a
// failure: it tells the caller to renew instead of refresh.
func (a *Authority) RolesStale(ctx context.Context, claims jwtx.Claims) (bool, error) {
	return a.Store.Roles().RolesChanged(ctx, claims.Subject, claims.Roles)
}

// Renew is the slow path, taken when the authoritative roles have diverged
// from the token's snapshot. It re-derives roles from the store, issues a
// fresh access+refresh pair and atomically swaps the recorded jti to the
// new refresh token, which is the only way the previous refresh token is
// ever invalidated before its natural expiry.
func (a *Authority) Renew(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	claims, err := a.Codec.Verify(jwtx.KindRefresh, refreshToken)
	if err != nil {
		return nil, err
	}

	var pair *domain.TokenPair
	err = a.Store.WithTx(ctx, func(tx store.Tx) error {
		ok, err := tx.Sessions().IsCurrentRefreshJTI(ctx, claims.Subject, claims.ID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrRevoked
			}
			return err
		}
		if !ok {
			return ErrRevoked
		}

		changed, err := tx.Roles().RolesChanged(ctx, claims.Subject, claims.Roles)
		if err != nil {
			return err
		}
		if !changed {
			return ErrRolesUnchanged
		}

		roles, err := tx.Roles().GetUserRoles(ctx, claims.Subject)
		if err != nil {
			return err
		}

		refresh, refreshClaims, err := a.Codec.Issue(jwtx.KindRefresh, claims.Subject, claims.Username, roles)
		if err != nil {
			return fmt.Errorf("issue refresh token: %w", err)
		}
		access, _, err := a.Codec.Issue(jwtx.KindAccess, claims.Subject, claims.Username, roles)
		if err != nil {
			return fmt.Errorf("issue access token: %w", err)
		}

		if err := tx.Sessions().SwapRefreshJTI(ctx, claims.Subject, claims.ID, refreshClaims.ID); err != nil {
			if errors.Is(err, store.ErrJTIMismatch) {
				return ErrRevoked
			}
			return err
		}

		pair = &domain.TokenPair{AccessToken: access, RefreshToken: refresh}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return pair, nil
}

// Revoke clears the recorded jti for the principal. Outstanding refresh
// tokens keep verifying cryptographically until they expire but fail the
// jti check on every stateful path from here on.
func (a *Authority) Revoke(ctx context.Context, userID string) error {
	return a.Store.Sessions().SetRefreshJTI(ctx, userID, "")
}
