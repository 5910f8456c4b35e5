package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/plannerhq/sessiond/internal/session/service"
	"github.com/plannerhq/sessiond/pkg/httpx"
	"github.com/plannerhq/sessiond/pkg/jwtx"
	"github.com/plannerhq/sessiond/pkg/sessionsdk"
	"github.com/plannerhq/sessiond/pkg/slogx"
)

// RefreshHandler serves POST /auth/token/refresh, the fast path. A new
// access token is minted from the refresh token's snapshot without touching
// session state, unless the snapshot has fallen behind the store, in which
// case the client is told to renew instead.
type RefreshHandler struct {
	Authority *service.Authority
}

func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req sessionsdk.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sessionsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	accessToken, err := h.Authority.Refresh(req.RefreshToken)
	if err != nil {
		writeTokenError(w, log, err)
		return
	}

	// The mint itself is stateless; the staleness probe is the one store
	// read on this path and only redirects the client, it changes nothing.
	claims, err := jwtx.Decode(req.RefreshToken)
	if err != nil {
		sessionsdk.ErrInvalidToken.WriteError(w)
		return
	}
	stale, err := h.Authority.RolesStale(ctx, claims)
	if err != nil {
		log.Error("role staleness probe failed", "user_id", claims.Subject, "err", err)
		sessionsdk.ErrServerError.WriteError(w)
		return
	}
	if stale {
		sessionsdk.ErrRolesStale.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, sessionsdk.TokenResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int(jwtx.AccessTokenTTL.Seconds()),
	})
}

// RenewHandler serves POST /auth/token/renew, the slow path. The session of
// record is checked, roles are re-read from the store and the refresh token
// is rotated.
type RenewHandler struct {
	Authority *service.Authority
}

func (h *RenewHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req sessionsdk.RenewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sessionsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	pair, err := h.Authority.Renew(ctx, req.RefreshToken)
	if err != nil {
		writeTokenError(w, log, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, sessionsdk.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(jwtx.AccessTokenTTL.Seconds()),
	})
}

func writeTokenError(w http.ResponseWriter, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, jwtx.ErrExpired):
		sessionsdk.ErrTokenExpired.WriteError(w)
	case errors.Is(err, jwtx.ErrInvalid):
		sessionsdk.ErrInvalidToken.WriteError(w)
	case errors.Is(err, service.ErrRevoked):
		sessionsdk.ErrTokenRevoked.WriteError(w)
	case errors.Is(err, service.ErrRolesUnchanged):
		sessionsdk.ErrRolesUnchanged.WriteError(w)
	default:
		log.Error("token operation failed", "err", err)
		sessionsdk.ErrServerError.WriteError(w)
	}
}
