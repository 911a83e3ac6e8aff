package service

import (
	"context"

	"github.com/halolight/officehub/internal/auth/domain"
	"github.com/halolight/officehub/internal/auth/store"
)

// RoleService lists roles and their permission grants.
type RoleService struct {
	store store.Store
}

// NewRoleService wires a RoleService.
func NewRoleService(st store.Store) *RoleService {
	return &RoleService{store: st}
}

// List returns every role with its permissions.
func (s *RoleService) List(ctx context.Context) ([]domain.Role, error) {
	return s.store.Roles().List(ctx)
}
