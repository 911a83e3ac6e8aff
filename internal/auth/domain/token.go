package domain

import (
	"time"

	"github.com/halolight/officehub/pkg/idx"
)

// TokenPair is what a successful login, registration or refresh hands back.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// RefreshToken is the stored record backing an issued refresh token. The raw
// token string never hits the database; TokenHash holds its SHA-256
// fingerprint. IP and UserAgent describe the client the token was issued to
// and may be empty.
type RefreshToken struct {
	ID        idx.ID
	UserID    idx.ID
	TokenHash string
	IP        string
	UserAgent string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}

// Usable reports whether the record may be exchanged at the given instant:
// not revoked and not expired.
func (t RefreshToken) Usable(now time.Time) bool {
	return t.RevokedAt == nil && t.ExpiresAt.After(now)
}

// AuthContext is attached to a request once its bearer token has been
// verified and the account loaded. Permissions is the union across all of
// the user's roles.
type AuthContext struct {
	User        User
	Roles       []Role
	Permissions PermissionSet
}

// HasRole reports whether any of the user's roles matches any of the given
// names.
func (a AuthContext) HasRole(names ...string) bool {
	for _, role := range a.Roles {
		for _, name := range names {
			if role.Name == name {
				return true
			}
		}
	}
	return false
}
