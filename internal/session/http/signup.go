package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/plannerhq/sessiond/internal/session/service"
	"github.com/plannerhq/sessiond/pkg/httpx"
	"github.com/plannerhq/sessiond/pkg/sessionsdk"
	"github.com/plannerhq/sessiond/pkg/slogx"
)

// SignUpHandler serves POST /auth/signup.
type SignUpHandler struct {
	Accounts *service.AccountService
}

func (h *SignUpHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req sessionsdk.SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sessionsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	user, err := h.Accounts.SignUp(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidArgument):
			sessionsdk.ErrInvalidArgument.WriteError(w)
		case errors.Is(err, service.ErrAccountExists):
			sessionsdk.ErrAccountExists.WriteError(w)
		default:
			log.Error("sign up failed", "err", err)
			sessionsdk.ErrServerError.WriteError(w)
		}
		return
	}

	log.Info("account created", "user_id", user.ID, "username", user.Username)

	httpx.WriteJSON(w, http.StatusCreated, sessionsdk.SignUpResponse{
		UserID:   user.ID,
		Username: user.Username,
	})
}
