package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/halolight/officehub/internal/auth/domain"
	"github.com/halolight/officehub/internal/auth/store"
	"github.com/halolight/officehub/pkg/cryptox"
	"github.com/halolight/officehub/pkg/idx"
	"github.com/halolight/officehub/pkg/slogx"
)

// BootstrapService seeds the permission catalog, the default roles and the
// optional initial admin account a fresh database needs before anyone can log
// in. Every step is idempotent, so it runs unconditionally on boot.
type BootstrapService struct {
	store  store.Store
	hasher *cryptox.Hasher
}

// NewBootstrapService wires a BootstrapService.
func NewBootstrapService(st store.Store, hasher *cryptox.Hasher) *BootstrapService {
	return &BootstrapService{store: st, hasher: hasher}
}

// AdminSeed is the optional initial admin account.
type AdminSeed struct {
	Email    string
	Password string
}

// The permission catalog: every resource gets the four verbs plus its
// wildcard, and the global wildcard exists on top.
var (
	catalogResources = []string{
		"users", "roles", "teams", "documents", "files",
		"folders", "calendar", "notifications", "messages",
	}
	catalogActions = []string{"view", "create", "edit", "delete"}
)

var defaultGrants = map[string][]string{
	domain.RoleAdmin: {"*"},
	domain.RoleUser: {
		"documents:view", "documents:create", "documents:edit",
		"files:view", "folders:view", "calendar:view",
		"notifications:view", "messages:view", "messages:create",
	},
}

// EnsureDefaults upserts the permission catalog, creates the ADMIN and USER
// roles with their default grants and, when admin is non-empty, the initial
// admin account. Existing rows are left untouched.
func (s *BootstrapService) EnsureDefaults(ctx context.Context, admin AdminSeed) error {
	logger := slogx.FromContext(ctx)

	permIDs, err := s.ensureCatalog(ctx)
	if err != nil {
		return err
	}

	for _, name := range []string{domain.RoleAdmin, domain.RoleUser} {
		role, err := s.ensureRole(ctx, name)
		if err != nil {
			return fmt.Errorf("ensure role %s: %w", name, err)
		}
		for _, grant := range defaultGrants[name] {
			permID, ok := permIDs[grant]
			if !ok {
				return fmt.Errorf("grant %s to %s: permission not in catalog", grant, name)
			}
			if err := s.store.Roles().Grant(ctx, role.ID, permID); err != nil {
				return fmt.Errorf("grant %s to %s: %w", grant, name, err)
			}
		}
	}

	if admin.Email == "" {
		return nil
	}
	return s.ensureAdmin(ctx, logger, admin)
}

func (s *BootstrapService) ensureCatalog(ctx context.Context) (map[string]idx.ID, error) {
	names := []string{"*"}
	for _, resource := range catalogResources {
		names = append(names, resource+":*")
		for _, action := range catalogActions {
			names = append(names, resource+":"+action)
		}
	}

	ids := make(map[string]idx.ID, len(names))
	for _, name := range names {
		perm := domain.Permission{ID: idx.New(), Name: name}
		if err := s.store.Roles().EnsurePermission(ctx, &perm); err != nil {
			return nil, fmt.Errorf("ensure permission %s: %w", name, err)
		}
		ids[name] = perm.ID
	}
	return ids, nil
}

func (s *BootstrapService) ensureRole(ctx context.Context, name string) (domain.Role, error) {
	role, err := s.store.Roles().GetByName(ctx, name)
	if err == nil {
		return role, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return domain.Role{}, err
	}

	now := time.Now()
	role = domain.Role{ID: idx.New(), Name: name, CreatedAt: now, UpdatedAt: now}
	if err := s.store.Roles().Create(ctx, &role); err != nil {
		return domain.Role{}, err
	}
	return role, nil
}

func (s *BootstrapService) ensureAdmin(ctx context.Context, logger *slog.Logger, admin AdminSeed) error {
	_, err := s.store.Users().GetByEmail(ctx, admin.Email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}
	if admin.Password == "" {
		return errors.New("bootstrap admin password is empty")
	}

	role, err := s.store.Roles().GetByName(ctx, domain.RoleAdmin)
	if err != nil {
		return err
	}
	hash, err := s.hasher.Hash(admin.Password)
	if err != nil {
		return err
	}

	now := time.Now()
	user := domain.User{
		ID:           idx.New(),
		Email:        admin.Email,
		Username:     "admin",
		Name:         "Administrator",
		PasswordHash: hash,
		Status:       domain.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err = s.store.WithTx(ctx, func(tx store.Repos) error {
		if err := tx.Users().Create(ctx, &user); err != nil {
			return err
		}
		return tx.Roles().Assign(ctx, user.ID, role.ID)
	})
	if err != nil {
		return fmt.Errorf("create admin account: %w", err)
	}

	logger.Info("bootstrap admin created", slog.String("email", admin.Email))
	return nil
}
