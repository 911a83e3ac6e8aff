package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/halolight/officehub/internal/auth/domain"
	"github.com/halolight/officehub/internal/auth/service"
	"github.com/halolight/officehub/internal/obs"
	"github.com/halolight/officehub/pkg/httpx"
)

type authCtxKey struct{}

// authContextFrom returns the AuthContext the guard stored on the request.
func authContextFrom(ctx context.Context) (domain.AuthContext, bool) {
	authCtx, ok := ctx.Value(authCtxKey{}).(domain.AuthContext)
	return authCtx, ok
}

// Guard authenticates requests and enforces permission and role requirements.
type Guard struct {
	auth    *service.AuthService
	metrics *obs.Metrics
}

// NewGuard wires a Guard.
func NewGuard(auth *service.AuthService, metrics *obs.Metrics) *Guard {
	return &Guard{auth: auth, metrics: metrics}
}

// Authenticate rejects requests without a valid bearer access token backed by
// an active account, and stores the resolved AuthContext for downstream
// handlers.
func (g *Guard) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			g.reject(w, http.StatusUnauthorized, "No token provided", "missing_token")
			return
		}

		authCtx, err := g.auth.Authenticate(r.Context(), token)
		switch {
		case errors.Is(err, service.ErrInvalidAccessToken):
			g.reject(w, http.StatusUnauthorized, "Invalid or expired token", "invalid_token")
			return
		case errors.Is(err, service.ErrUserNotFound):
			g.reject(w, http.StatusUnauthorized, "User not found", "user_not_found")
			return
		case errors.Is(err, service.ErrAccountInactive):
			g.reject(w, http.StatusUnauthorized, "Account is not active", "account_inactive")
			return
		case err != nil:
			httpx.Error(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		ctx := context.WithValue(r.Context(), authCtxKey{}, authCtx)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequirePermissions allows the request only when the authenticated user's
// permission set grants every listed permission. Must run inside
// Authenticate.
func (g *Guard) RequirePermissions(required ...string) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authCtx, ok := authContextFrom(r.Context())
			if !ok {
				g.reject(w, http.StatusUnauthorized, "No token provided", "missing_token")
				return
			}
			if !authCtx.Permissions.Satisfies(required...) {
				g.reject(w, http.StatusForbidden, "Insufficient permissions", "permission_denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole allows the request when the user's role matches any of the
// listed names. Must run inside Authenticate.
func (g *Guard) RequireRole(roles ...string) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authCtx, ok := authContextFrom(r.Context())
			if !ok {
				g.reject(w, http.StatusUnauthorized, "No token provided", "missing_token")
				return
			}
			if !authCtx.HasRole(roles...) {
				g.reject(w, http.StatusForbidden, "Insufficient role", "role_denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (g *Guard) reject(w http.ResponseWriter, status int, message, reason string) {
	if g.metrics != nil {
		g.metrics.AuthFailure(reason)
	}
	httpx.Error(w, status, message)
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}
