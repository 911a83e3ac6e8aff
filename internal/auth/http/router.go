package http

import (
	"context"
	"net/http"
	"time"

	"github.com/halolight/officehub/internal/auth/service"
	"github.com/halolight/officehub/internal/obs"
	"github.com/halolight/officehub/pkg/httpx"
)

// RouterConfig bundles everything the router needs.
type RouterConfig struct {
	Auth    *service.AuthService
	Users   *service.UserService
	Roles   *service.RoleService
	Metrics *obs.Metrics

	// Pinger reports store health for /readyz.
	Pinger interface {
		Ping(ctx context.Context) error
	}

	// DevMode exposes reset tokens in forgot-password responses.
	DevMode bool

	// LoginRatePerSecond throttles the credential endpoints per client IP.
	// Zero disables throttling.
	LoginRatePerSecond float64
	LoginBurst         int
}

// NewRouter builds the service's HTTP handler.
func NewRouter(cfg RouterConfig) http.Handler {
	guard := NewGuard(cfg.Auth, cfg.Metrics)
	authH := &authHandlers{auth: cfg.Auth, devMode: cfg.DevMode}
	userH := &userHandlers{users: cfg.Users, roles: cfg.Roles}

	credentialLimit := func(h http.Handler) http.Handler { return h }
	if cfg.LoginRatePerSecond > 0 {
		rl := httpx.NewRateLimiter(cfg.LoginRatePerSecond, cfg.LoginBurst, httpx.ClientIPKey)
		credentialLimit = rl.Middleware
	}

	mux := http.NewServeMux()

	// Credential endpoints, throttled per client.
	mux.Handle("POST /api/auth/login", credentialLimit(http.HandlerFunc(authH.login)))
	mux.Handle("POST /api/auth/register", credentialLimit(http.HandlerFunc(authH.register)))
	mux.Handle("POST /api/auth/forgot-password", credentialLimit(http.HandlerFunc(authH.forgotPassword)))
	mux.Handle("POST /api/auth/reset-password", credentialLimit(http.HandlerFunc(authH.resetPassword)))
	mux.HandleFunc("POST /api/auth/refresh", authH.refresh)

	// Session endpoints.
	mux.Handle("POST /api/auth/logout", guard.Authenticate(http.HandlerFunc(authH.logout)))
	mux.Handle("GET /api/auth/me", guard.Authenticate(http.HandlerFunc(authH.me)))

	// Directory endpoints, permission gated.
	mux.Handle("GET /api/users", httpx.Chain(http.HandlerFunc(userH.listUsers),
		guard.Authenticate, guard.RequirePermissions("users:view")))
	mux.Handle("GET /api/users/{id}", httpx.Chain(http.HandlerFunc(userH.getUser),
		guard.Authenticate, guard.RequirePermissions("users:view")))
	mux.Handle("GET /api/roles", httpx.Chain(http.HandlerFunc(userH.listRoles),
		guard.Authenticate, guard.RequirePermissions("roles:view")))

	// Operational endpoints.
	mux.HandleFunc("GET /livez", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if cfg.Pinger == nil || cfg.Pinger.Ping(ctx) != nil {
			httpx.Error(w, http.StatusServiceUnavailable, "Store unavailable")
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics.Handler())
		return cfg.Metrics.HTTPMiddleware(mux)
	}
	return mux
}
