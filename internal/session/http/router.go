package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/plannerhq/sessiond/internal/session/service"
	"github.com/plannerhq/sessiond/internal/session/store"
	"github.com/plannerhq/sessiond/pkg/httpx"
	"github.com/plannerhq/sessiond/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store     store.Store
	Authority *service.Authority
	Accounts  *service.AccountService
}

func NewRouter(
	authority *service.Authority,
	accounts *service.AccountService,
	st store.Store,
	buildVersion string,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		store:        st,
		Authority:    authority,
		Accounts:     accounts,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAccounts()
	r.registerTokens()
	r.registerUserInfo()
	r.registerSystem()
}

// ServeHTTP implements http.Handler and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAccounts() {
	// Credential endpoints are the brute-force surface, so they get the
	// strict per-IP budget.
	r.Mux.Handle("POST /auth/signup",
		httpx.Chain(&SignUpHandler{Accounts: r.Accounts},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /auth/signin",
		httpx.Chain(&SignInHandler{Accounts: r.Accounts},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /auth/signout",
		httpx.Chain(&SignOutHandler{Accounts: r.Accounts},
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerTokens() {
	// Healthy clients hit refresh roughly once per access token lifetime,
	// so the moderate budget leaves plenty of headroom.
	r.Mux.Handle("POST /auth/token/refresh",
		httpx.Chain(&RefreshHandler{Authority: r.Authority},
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /auth/token/renew",
		httpx.Chain(&RenewHandler{Authority: r.Authority},
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerUserInfo() {
	secured := httpx.Chain(&UserInfoHandler{Store: r.store},
		httpx.AuthnMiddleware(r.Authority),
		httpx.RateLimitByUser(httpx.LenientLimit),
	)

	r.Mux.Handle("GET /auth/userinfo", secured)
}

func (r *Router) registerSystem() {
	// Monitoring systems may poll frequently, hence the lenient budget.
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
