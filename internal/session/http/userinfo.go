package http

import (
	"net/http"

	"github.com/plannerhq/sessiond/internal/session/store"
	"github.com/plannerhq/sessiond/pkg/httpx"
	"github.com/plannerhq/sessiond/pkg/sessionsdk"
	"github.com/plannerhq/sessiond/pkg/slogx"
)

// UserInfoHandler serves GET /auth/userinfo. Roles are read from the store
// rather than echoed from the token, so the answer is always authoritative.
type UserInfoHandler struct {
	Store store.Store
}

func (h *UserInfoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserIDFromCtx(ctx)
	if userID == "" {
		sessionsdk.ErrInvalidToken.WriteError(w)
		return
	}

	user, err := h.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		log.Warn("failed to load user", "user_id", userID, "err", err)
		sessionsdk.ErrServerError.WriteError(w)
		return
	}

	roles, err := h.Store.Roles().GetUserRoles(ctx, userID)
	if err != nil {
		log.Warn("failed to load roles", "user_id", userID, "err", err)
		sessionsdk.ErrServerError.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, sessionsdk.UserInfoResponse{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Roles:    roles,
	})
}
