// Package sqlite implements the store contracts on SQLite via the pure-Go
// modernc driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/halolight/officehub/internal/auth/store"
)

// Store is the SQLite-backed store.Store implementation.
type Store struct {
	db *sql.DB
	repos
}

var _ store.Store = (*Store)(nil)

// NewStore opens (and creates if needed) the database at path. Use ":memory:"
// for an ephemeral database in tests.
func NewStore(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite serializes writers; a single connection avoids busy errors and
	// keeps :memory: databases coherent across goroutines.
	db.SetMaxOpenConns(1)
	return NewStoreWithDB(db), nil
}

// NewStoreWithDB wraps an existing handle. Tests use this with sqlmock.
func NewStoreWithDB(db *sql.DB) *Store {
	return &Store{db: db, repos: newRepos(db)}
}

// ApplyMigrations brings the schema up to date.
func (s *Store) ApplyMigrations() error {
	return migrateUp(s.db)
}

// WithTx implements store.Store.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Repos) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(newRepos(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Ping implements store.Store.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close implements store.Store.
func (s *Store) Close() error {
	return s.db.Close()
}

// querier is satisfied by both *sql.DB and *sql.Tx so each repository works
// inside and outside transactions.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type repos struct {
	users         *usersRepo
	roles         *rolesRepo
	refreshTokens *refreshTokensRepo
}

func newRepos(q querier) repos {
	return repos{
		users:         &usersRepo{q: q},
		roles:         &rolesRepo{q: q},
		refreshTokens: &refreshTokensRepo{q: q},
	}
}

func (r repos) Users() store.Users                 { return r.users }
func (r repos) Roles() store.Roles                 { return r.roles }
func (r repos) RefreshTokens() store.RefreshTokens { return r.refreshTokens }

var _ store.Repos = repos{}

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func mapConstraint(err error) error {
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return store.ErrAlreadyExists
	}
	return err
}
