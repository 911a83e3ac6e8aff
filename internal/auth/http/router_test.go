package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/halolight/officehub/internal/auth/service"
	"github.com/halolight/officehub/internal/auth/store/drivers/sqlite"
	"github.com/halolight/officehub/internal/obs"
	"github.com/halolight/officehub/pkg/cryptox"
	"github.com/halolight/officehub/pkg/httpx"
	"github.com/halolight/officehub/pkg/jwtx"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	codec, err := jwtx.NewCodec(jwtx.Config{
		Secret:     []byte("router-test-secret"),
		Issuer:     "officehub-test",
		AccessTTL:  time.Hour,
		RefreshTTL: 24 * time.Hour,
		ResetTTL:   time.Hour,
	})
	require.NoError(t, err)

	hasher := cryptox.NewHasher([]byte("router-test-pepper"))
	tokens := service.NewTokenService(st, codec)
	auth := service.NewAuthService(st, tokens, codec, hasher)

	bootstrap := service.NewBootstrapService(st, hasher)
	require.NoError(t, bootstrap.EnsureDefaults(context.Background(), service.AdminSeed{
		Email:    "admin@example.com",
		Password: "admin-secret-1",
	}))

	handler := NewRouter(RouterConfig{
		Auth:    auth,
		Users:   service.NewUserService(st),
		Roles:   service.NewRoleService(st),
		Metrics: obs.New(),
		Pinger:  st,
		DevMode: true,
	})
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, srv *httptest.Server, method, path, bearer string, body any) (*http.Response, httpx.Envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env httpx.Envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp, env
}

func dataMap(t *testing.T, env httpx.Envelope) map[string]any {
	t.Helper()
	m, ok := env.Data.(map[string]any)
	require.True(t, ok, "data is not an object: %#v", env.Data)
	return m
}

func register(t *testing.T, srv *httptest.Server, email string) map[string]any {
	t.Helper()
	username, _, _ := strings.Cut(email, "@")
	resp, env := doJSON(t, srv, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Router Test", "email": email, "username": username, "password": "password123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.True(t, env.Success)
	return dataMap(t, env)
}

func TestRegisterLoginMeFlow(t *testing.T) {
	srv := newTestServer(t)

	data := register(t, srv, "alice@example.com")
	access := data["accessToken"].(string)
	require.NotEmpty(t, access)
	require.Equal(t, "alice", data["user"].(map[string]any)["username"])

	t.Run("me returns the session user with roles and permissions", func(t *testing.T) {
		resp, env := doJSON(t, srv, http.MethodGet, "/api/auth/me", access, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		me := dataMap(t, env)
		user := me["user"].(map[string]any)
		require.Equal(t, "alice@example.com", user["email"])
		require.Equal(t, "alice", user["username"])

		roles := me["roles"].([]any)
		require.Len(t, roles, 1)
		require.Equal(t, "USER", roles[0].(map[string]any)["name"])
		require.NotEmpty(t, me["permissions"])
	})

	t.Run("login stamps lastLoginAt", func(t *testing.T) {
		resp, env := doJSON(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{
			"email": "alice@example.com", "password": "password123",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		user := dataMap(t, env)["user"].(map[string]any)
		require.NotNil(t, user["lastLoginAt"])
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		resp, env := doJSON(t, srv, http.MethodPost, "/api/auth/register", "", map[string]string{
			"name": "Dup", "email": "alice@example.com", "username": "alice-two", "password": "password123",
		})
		require.Equal(t, http.StatusConflict, resp.StatusCode)
		require.Equal(t, "Conflict", env.Error)
		require.Equal(t, "Email or username already exists", env.Message)
	})

	t.Run("duplicate username conflicts", func(t *testing.T) {
		resp, env := doJSON(t, srv, http.MethodPost, "/api/auth/register", "", map[string]string{
			"name": "Dup", "email": "alice2@example.com", "username": "alice", "password": "password123",
		})
		require.Equal(t, http.StatusConflict, resp.StatusCode)
		require.Equal(t, "Email or username already exists", env.Message)
	})

	t.Run("bad credentials", func(t *testing.T) {
		resp, env := doJSON(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{
			"email": "alice@example.com", "password": "wrong-password",
		})
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		require.Equal(t, "Unauthorized", env.Error)
		require.Equal(t, "Invalid credentials", env.Message)
	})

	t.Run("five character password rejected", func(t *testing.T) {
		resp, env := doJSON(t, srv, http.MethodPost, "/api/auth/register", "", map[string]string{
			"name": "Shorty", "email": "short@example.com", "username": "shorty", "password": "five!",
		})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.Equal(t, "Password must be at least 6 characters", env.Message)
	})

	t.Run("six character password accepted", func(t *testing.T) {
		resp, _ := doJSON(t, srv, http.MethodPost, "/api/auth/register", "", map[string]string{
			"name": "Sixer", "email": "sixer@example.com", "username": "sixer", "password": "sixsix",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	})

	t.Run("missing username rejected", func(t *testing.T) {
		resp, _ := doJSON(t, srv, http.MethodPost, "/api/auth/register", "", map[string]string{
			"name": "Nameless", "email": "nameless@example.com", "password": "password123",
		})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestGuardResponses(t *testing.T) {
	srv := newTestServer(t)

	t.Run("missing token", func(t *testing.T) {
		resp, env := doJSON(t, srv, http.MethodGet, "/api/auth/me", "", nil)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		require.Equal(t, "Unauthorized", env.Error)
		require.Equal(t, "No token provided", env.Message)
	})

	t.Run("garbage token", func(t *testing.T) {
		resp, env := doJSON(t, srv, http.MethodGet, "/api/auth/me", "garbage", nil)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		require.Equal(t, "Unauthorized", env.Error)
		require.Equal(t, "Invalid or expired token", env.Message)
	})
}

func TestRefreshAndLogoutFlow(t *testing.T) {
	srv := newTestServer(t)
	data := register(t, srv, "bob@example.com")
	refresh := data["refreshToken"].(string)

	resp, env := doJSON(t, srv, http.MethodPost, "/api/auth/refresh", "", map[string]string{
		"refreshToken": refresh,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rotated := dataMap(t, env)
	newAccess := rotated["accessToken"].(string)
	newRefresh := rotated["refreshToken"].(string)
	require.NotEqual(t, refresh, newRefresh)

	t.Run("replay of the rotated token fails", func(t *testing.T) {
		resp, env := doJSON(t, srv, http.MethodPost, "/api/auth/refresh", "", map[string]string{
			"refreshToken": refresh,
		})
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		require.Equal(t, "Unauthorized", env.Error)
		require.Equal(t, "Invalid or expired refresh token", env.Message)
	})

	t.Run("logout revokes the session", func(t *testing.T) {
		resp, _ := doJSON(t, srv, http.MethodPost, "/api/auth/logout", newAccess, map[string]any{
			"refreshToken": newRefresh,
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp, _ = doJSON(t, srv, http.MethodPost, "/api/auth/refresh", "", map[string]string{
			"refreshToken": newRefresh,
		})
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("logout with an empty body ends every session", func(t *testing.T) {
		resp, env := doJSON(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{
			"email": "bob@example.com", "password": "password123",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		session := dataMap(t, env)
		access := session["accessToken"].(string)
		refresh := session["refreshToken"].(string)

		resp, _ = doJSON(t, srv, http.MethodPost, "/api/auth/logout", access, map[string]any{})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp, _ = doJSON(t, srv, http.MethodPost, "/api/auth/refresh", "", map[string]string{
			"refreshToken": refresh,
		})
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode, "the session must actually be gone")
	})
}

func TestPermissionGating(t *testing.T) {
	srv := newTestServer(t)

	userData := register(t, srv, "carol@example.com")
	userAccess := userData["accessToken"].(string)

	_, env := doJSON(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "admin@example.com", "password": "admin-secret-1",
	})
	adminAccess := dataMap(t, env)["accessToken"].(string)

	t.Run("plain user is denied the directory", func(t *testing.T) {
		resp, env := doJSON(t, srv, http.MethodGet, "/api/users", userAccess, nil)
		require.Equal(t, http.StatusForbidden, resp.StatusCode)
		require.Equal(t, "Forbidden", env.Error)
		require.Equal(t, "Insufficient permissions", env.Message)
	})

	t.Run("plain user is denied the role list", func(t *testing.T) {
		resp, env := doJSON(t, srv, http.MethodGet, "/api/roles", userAccess, nil)
		require.Equal(t, http.StatusForbidden, resp.StatusCode)
		require.Equal(t, "Forbidden", env.Error)
		require.Equal(t, "Insufficient permissions", env.Message)
	})

	t.Run("admin wildcard opens the directory", func(t *testing.T) {
		resp, env := doJSON(t, srv, http.MethodGet, "/api/users?page=1&limit=10", adminAccess, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.NotNil(t, env.Meta)
		require.Equal(t, 2, env.Meta.Total, "admin plus carol")
	})

	t.Run("admin reads roles", func(t *testing.T) {
		resp, _ := doJSON(t, srv, http.MethodGet, "/api/roles", adminAccess, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestPasswordResetFlow(t *testing.T) {
	srv := newTestServer(t)
	register(t, srv, "dave@example.com")

	t.Run("unknown email gets the same message and no token", func(t *testing.T) {
		resp, env := doJSON(t, srv, http.MethodPost, "/api/auth/forgot-password", "", map[string]string{
			"email": "nobody@example.com",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Nil(t, env.Data)
		require.Contains(t, env.Message, "If the email exists")
	})

	resp, env := doJSON(t, srv, http.MethodPost, "/api/auth/forgot-password", "", map[string]string{
		"email": "dave@example.com",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resetToken := dataMap(t, env)["resetToken"].(string)
	require.NotEmpty(t, resetToken, "dev mode surfaces the token")

	t.Run("reset then login with the new password", func(t *testing.T) {
		resp, _ := doJSON(t, srv, http.MethodPost, "/api/auth/reset-password", "", map[string]string{
			"token": resetToken, "newPassword": "a-new-password",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp, _ = doJSON(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{
			"email": "dave@example.com", "password": "password123",
		})
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		resp, _ = doJSON(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{
			"email": "dave@example.com", "password": "a-new-password",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("bad reset token is a bad request", func(t *testing.T) {
		resp, env := doJSON(t, srv, http.MethodPost, "/api/auth/reset-password", "", map[string]string{
			"token": "bogus", "newPassword": "a-new-password",
		})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.Equal(t, "Bad Request", env.Error)
		require.Equal(t, "Invalid or expired reset token", env.Message)
	})
}

func TestOperationalEndpoints(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/livez", "/readyz"} {
		resp, err := srv.Client().Get(srv.URL + path)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode, path)
		resp.Body.Close()
	}

	resp, err := srv.Client().Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
