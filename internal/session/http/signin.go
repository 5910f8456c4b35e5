package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/plannerhq/sessiond/internal/session/service"
	"github.com/plannerhq/sessiond/pkg/httpx"
	"github.com/plannerhq/sessiond/pkg/jwtx"
	"github.com/plannerhq/sessiond/pkg/sessionsdk"
	"github.com/plannerhq/sessiond/pkg/slogx"
)

// SignInHandler serves POST /auth/signin.
type SignInHandler struct {
	Accounts *service.AccountService
}

func (h *SignInHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req sessionsdk.SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sessionsdk.ErrInvalidRequest.WriteError(w)
		return
	}
	if req.Email == "" || req.Password == "" {
		sessionsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	pair, user, err := h.Accounts.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			sessionsdk.ErrInvalidCredentials.WriteError(w)
			return
		}
		log.Error("sign in failed", "err", err)
		sessionsdk.ErrServerError.WriteError(w)
		return
	}

	log.Info("signed in", "user_id", user.ID)

	httpx.WriteJSON(w, http.StatusOK, sessionsdk.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(jwtx.AccessTokenTTL.Seconds()),
	})
}
