package domain

import (
	"time"

	"github.com/halolight/officehub/pkg/idx"
)

// Role names every user must be assignable to out of the box.
const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

// Role groups permissions under a name. Roles are flat; there is no
// inheritance between them.
type Role struct {
	ID          idx.ID
	Name        string
	Description string
	Permissions []Permission
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PermissionNames returns the names of the role's permissions.
func (r Role) PermissionNames() []string {
	names := make([]string, len(r.Permissions))
	for i, p := range r.Permissions {
		names[i] = p.Name
	}
	return names
}

// Permission is a named capability, usually "resource:action" (for example
// "users:view") or a wildcard like "users:*" or "*".
type Permission struct {
	ID          idx.ID
	Name        string
	Description string
}
