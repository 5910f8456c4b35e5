package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/plannerhq/sessiond/internal/session/service"
	"github.com/plannerhq/sessiond/pkg/jwtx"
	"github.com/plannerhq/sessiond/pkg/sessionsdk"
	"github.com/plannerhq/sessiond/pkg/slogx"
)

// SignOutHandler serves POST /auth/signout.
type SignOutHandler struct {
	Accounts *service.AccountService
}

func (h *SignOutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req sessionsdk.SignOutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sessionsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	if err := h.Accounts.SignOut(ctx, req.RefreshToken); err != nil {
		if errors.Is(err, jwtx.ErrInvalid) {
			sessionsdk.ErrInvalidToken.WriteError(w)
			return
		}
		log.Error("sign out failed", "err", err)
		sessionsdk.ErrServerError.WriteError(w)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
