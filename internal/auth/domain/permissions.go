package domain

import "strings"

// PermissionSet is the flattened set of permission names a user holds.
type PermissionSet map[string]struct{}

// NewPermissionSet builds a set from permission names.
func NewPermissionSet(names ...string) PermissionSet {
	set := make(PermissionSet, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}

// Has reports whether the set grants a single required permission. A
// permission is granted by an exact match, by the global wildcard "*", or by
// a resource wildcard "resource:*" matching the resource prefix of the
// requirement.
func (s PermissionSet) Has(required string) bool {
	if _, ok := s[required]; ok {
		return true
	}
	if _, ok := s["*"]; ok {
		return true
	}
	resource, _, found := strings.Cut(required, ":")
	if !found {
		return false
	}
	_, ok := s[resource+":*"]
	return ok
}

// Satisfies reports whether the set grants every required permission. An
// empty requirement list is trivially satisfied.
func (s PermissionSet) Satisfies(required ...string) bool {
	for _, req := range required {
		if !s.Has(req) {
			return false
		}
	}
	return true
}
