package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPermissionSetHas(t *testing.T) {
	tests := []struct {
		name     string
		granted  []string
		required string
		want     bool
	}{
		{"exact match", []string{"users:view"}, "users:view", true},
		{"missing", []string{"users:view"}, "users:edit", false},
		{"global wildcard", []string{"*"}, "anything:at-all", true},
		{"global wildcard no colon", []string{"*"}, "dashboard", true},
		{"resource wildcard", []string{"users:*"}, "users:delete", true},
		{"resource wildcard other resource", []string{"users:*"}, "roles:view", false},
		{"no colon requirement not covered by resource wildcard", []string{"users:*"}, "users", false},
		{"wildcard only matches resource prefix", []string{"users:*"}, "users:admin:impersonate", true},
		{"empty set", nil, "users:view", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			set := NewPermissionSet(tc.granted...)
			require.Equal(t, tc.want, set.Has(tc.required))
		})
	}
}

func TestPermissionSetSatisfies(t *testing.T) {
	set := NewPermissionSet("users:view", "reports:*")

	require.True(t, set.Satisfies(), "empty requirement is trivially satisfied")
	require.True(t, set.Satisfies("users:view"))
	require.True(t, set.Satisfies("users:view", "reports:export"))
	require.False(t, set.Satisfies("users:view", "users:edit"), "all requirements must hold")
}

func TestRefreshTokenUsable(t *testing.T) {
	now := time.Now()
	revoked := now.Add(-time.Minute)

	tok := RefreshToken{ExpiresAt: now.Add(time.Hour)}
	require.True(t, tok.Usable(now))

	tok.RevokedAt = &revoked
	require.False(t, tok.Usable(now), "revoked token is unusable")

	tok = RefreshToken{ExpiresAt: now.Add(-time.Second)}
	require.False(t, tok.Usable(now), "expired token is unusable")
}

func TestAuthContextHasRole(t *testing.T) {
	authCtx := AuthContext{Roles: []Role{{Name: RoleUser}, {Name: "EDITOR"}}}
	require.True(t, authCtx.HasRole(RoleAdmin, RoleUser))
	require.True(t, authCtx.HasRole("EDITOR"))
	require.False(t, authCtx.HasRole(RoleAdmin))

	require.False(t, AuthContext{}.HasRole(RoleUser), "no roles matches nothing")
}
