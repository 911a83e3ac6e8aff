// Package store defines the persistence contracts the auth services depend
// on. Drivers live under drivers/.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/halolight/officehub/internal/auth/domain"
	"github.com/halolight/officehub/pkg/idx"
)

// Sentinel errors returned by every driver.
var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root persistence handle.
type Store interface {
	Repos

	// WithTx runs fn inside a single transaction. The transaction commits
	// when fn returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(tx Repos) error) error

	Ping(ctx context.Context) error
	Close() error
}

// Repos bundles the repositories. Both the root store and an open
// transaction satisfy it, so service code is written once.
type Repos interface {
	Users() Users
	Roles() Roles
	RefreshTokens() RefreshTokens
}

// Users persists accounts.
type Users interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id idx.ID) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	UpdatePassword(ctx context.Context, id idx.ID, passwordHash string) error
	UpdateStatus(ctx context.Context, id idx.ID, status domain.Status) error
	UpdateLastLogin(ctx context.Context, id idx.ID, at time.Time) error
	List(ctx context.Context, offset, limit int) ([]domain.User, int, error)
}

// Roles persists roles and their permission grants.
type Roles interface {
	Create(ctx context.Context, r *domain.Role) error
	GetByID(ctx context.Context, id idx.ID) (domain.Role, error)
	GetByName(ctx context.Context, name string) (domain.Role, error)
	List(ctx context.Context) ([]domain.Role, error)

	EnsurePermission(ctx context.Context, p *domain.Permission) error
	Grant(ctx context.Context, roleID, permissionID idx.ID) error

	Assign(ctx context.Context, userID, roleID idx.ID) error
	ListForUser(ctx context.Context, userID idx.ID) ([]domain.Role, error)
}

// RefreshTokens persists issued refresh token records, keyed by token
// fingerprint.
type RefreshTokens interface {
	Create(ctx context.Context, t *domain.RefreshToken) error
	GetByHash(ctx context.Context, hash string) (domain.RefreshToken, error)

	// Revoke marks the user's matching unrevoked record revoked and reports
	// how many rows changed. A zero count is not an error; callers that need
	// exactly-once semantics check it.
	Revoke(ctx context.Context, userID idx.ID, hash string) (int64, error)
	RevokeAllForUser(ctx context.Context, userID idx.ID) (int64, error)

	DeleteExpiredForUser(ctx context.Context, userID idx.ID, now time.Time) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
