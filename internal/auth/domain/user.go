// Package domain holds the core auth entities and the permission matching
// rules. It has no dependencies on storage or transport.
package domain

import (
	"time"

	"github.com/halolight/officehub/pkg/idx"
)

// Status is a user account lifecycle state. Only active accounts may log in
// or present tokens.
type Status string

const (
	StatusActive    Status = "active"
	StatusInactive  Status = "inactive"
	StatusSuspended Status = "suspended"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusSuspended:
		return true
	}
	return false
}

// User is a workspace account. A user holds zero or more roles; the union of
// their permissions is what the guard enforces.
type User struct {
	ID           idx.ID
	Email        string
	Username     string
	Name         string
	PasswordHash string
	Status       Status
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
