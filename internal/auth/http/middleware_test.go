package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/halolight/officehub/internal/auth/domain"
)

func guardedRequest(t *testing.T, h http.Handler, authCtx *domain.AuthContext) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authCtx != nil {
		req = req.WithContext(context.WithValue(req.Context(), authCtxKey{}, *authCtx))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRequireRole(t *testing.T) {
	guard := NewGuard(nil, nil)
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	protected := guard.RequireRole(domain.RoleAdmin)(ok)

	t.Run("matching role passes", func(t *testing.T) {
		authCtx := domain.AuthContext{Roles: []domain.Role{{Name: domain.RoleAdmin}}}
		rec := guardedRequest(t, protected, &authCtx)
		require.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("any of several roles passes", func(t *testing.T) {
		authCtx := domain.AuthContext{Roles: []domain.Role{{Name: domain.RoleUser}, {Name: domain.RoleAdmin}}}
		rec := guardedRequest(t, protected, &authCtx)
		require.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("wrong role is forbidden", func(t *testing.T) {
		authCtx := domain.AuthContext{Roles: []domain.Role{{Name: domain.RoleUser}}}
		rec := guardedRequest(t, protected, &authCtx)
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.Contains(t, rec.Body.String(), "Insufficient role")
	})

	t.Run("unauthenticated request is rejected", func(t *testing.T) {
		rec := guardedRequest(t, protected, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestBearerToken(t *testing.T) {
	cases := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"Bearer  abc ", "abc", true},
		{"Bearer ", "", false},
		{"Basic abc", "", false},
		{"abc", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		token, ok := bearerToken(req)
		require.Equal(t, tc.ok, ok, "header %q", tc.header)
		require.Equal(t, tc.token, token, "header %q", tc.header)
	}
}
