package httpx

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/plannerhq/sessiond/pkg/jwtx"
	"github.com/plannerhq/sessiond/pkg/slogx"
)

// Verifier checks an access token and returns its claims.
type Verifier interface {
	Verify(accessToken string) (jwtx.Claims, error)
}

// AuthnMiddleware rejects requests without a valid bearer access token and
// injects the verified identity into the request context. Expired tokens get
// a distinct error code so clients know a refresh will fix it.
func AuthnMiddleware(v Verifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			authz := r.Header.Get("Authorization")
			if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
				writeBearerError(w, "invalid_request", "missing bearer token")
				return
			}
			raw := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))

			claims, err := v.Verify(raw)
			switch {
			case errors.Is(err, jwtx.ErrExpired):
				writeBearerError(w, "token_expired", "access token expired")
				return
			case err != nil:
				log.Warn("access token rejected", "err", err)
				writeBearerError(w, "invalid_token", "token verification failed")
				return
			}

			ctx = contextWithIdentity(ctx, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func contextWithIdentity(ctx context.Context, c jwtx.Claims) context.Context {
	ctx = context.WithValue(ctx, CtxKeyUserID, c.Subject)
	ctx = context.WithValue(ctx, CtxKeyUsername, c.Username)
	ctx = context.WithValue(ctx, CtxKeyRoles, c.Roles)
	ctx = context.WithValue(ctx, CtxKeyClaims, c)
	return ctx
}

// RFC 6750-compliant error response for bearer auth.
func writeBearerError(w http.ResponseWriter, code, desc string) {
	w.Header().Set("WWW-Authenticate",
		`Bearer error="`+code+`", error_description="`+desc+`"`)
	WriteError(w, http.StatusUnauthorized, code, desc)
}
