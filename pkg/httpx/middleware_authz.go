package httpx

import (
	"net/http"
	"strings"
)

// RequireAnyRole lets the request through when the caller holds at least one
// of the listed roles. Must run inside AuthnMiddleware.
func RequireAnyRole(required ...string) Middleware {
	want := make(map[string]struct{}, len(required))
	for _, r := range required {
		want[r] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, role := range rolesFromCtx(r.Context()) {
				if _, ok := want[role]; ok {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeRoleError(w, required...)
		})
	}
}

// RequireAllRoles lets the request through only when the caller holds every
// listed role.
func RequireAllRoles(required ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			have := make(map[string]struct{})
			for _, role := range rolesFromCtx(r.Context()) {
				have[role] = struct{}{}
			}
			for _, req := range required {
				if _, ok := have[req]; !ok {
					writeRoleError(w, required...)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeRoleError(w http.ResponseWriter, required ...string) {
	w.Header().Set("WWW-Authenticate",
		`Bearer error="insufficient_role", role="`+strings.Join(required, " ")+`"`)
	WriteError(w, http.StatusForbidden, "insufficient_role", "caller lacks a required role")
}
