package service

import (
	"context"
	"errors"

	"github.com/halolight/officehub/internal/auth/domain"
	"github.com/halolight/officehub/internal/auth/store"
	"github.com/halolight/officehub/pkg/idx"
)

// UserService serves the admin-facing user directory.
type UserService struct {
	store store.Store
}

// NewUserService wires a UserService.
func NewUserService(st store.Store) *UserService {
	return &UserService{store: st}
}

// Page is a paginated slice of users.
type Page struct {
	Users      []domain.User
	Page       int
	Limit      int
	Total      int
	TotalPages int
}

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// List returns one page of users. Page numbers start at 1; out-of-range
// inputs are clamped rather than rejected.
func (s *UserService) List(ctx context.Context, page, limit int) (Page, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	users, total, err := s.store.Users().List(ctx, (page-1)*limit, limit)
	if err != nil {
		return Page{}, err
	}

	totalPages := total / limit
	if total%limit != 0 {
		totalPages++
	}
	return Page{Users: users, Page: page, Limit: limit, Total: total, TotalPages: totalPages}, nil
}

// Get returns a single user by id.
func (s *UserService) Get(ctx context.Context, id idx.ID) (domain.User, error) {
	user, err := s.store.Users().GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, ErrUserNotFound
	}
	return user, err
}
