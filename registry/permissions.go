package registry

import "sort"

// Permission names a capability granted to an admin record.
type Permission string

const (
	PermissionRead   Permission = "read"
	PermissionWrite  Permission = "write"
	PermissionDelete Permission = "delete"
)

// ParsePermission validates a raw permission string from the API surface.
func ParsePermission(s string) (Permission, bool) {
	switch Permission(s) {
	case PermissionRead, PermissionWrite, PermissionDelete:
		return Permission(s), true
	}
	return "", false
}

// PermissionSet is the role-specific extension kept beside admin records.
// It has set semantics: granting a present permission and revoking an absent
// one are both no-ops.
type PermissionSet struct {
	members map[Permission]struct{}
}

// NewPermissionSet returns an empty set.
func NewPermissionSet() *PermissionSet {
	return &PermissionSet{members: make(map[Permission]struct{})}
}

// DefaultAdminPermissions returns the set every admin starts with.
func DefaultAdminPermissions() *PermissionSet {
	s := NewPermissionSet()
	s.Grant(PermissionRead)
	s.Grant(PermissionWrite)
	s.Grant(PermissionDelete)
	return s
}

// Grant adds p to the set.
func (s *PermissionSet) Grant(p Permission) {
	s.members[p] = struct{}{}
}

// Revoke removes p from the set.
func (s *PermissionSet) Revoke(p Permission) {
	delete(s.members, p)
}

// Has reports whether p is in the set.
func (s *PermissionSet) Has(p Permission) bool {
	_, ok := s.members[p]
	return ok
}

// List returns the permissions in sorted order for stable responses.
func (s *PermissionSet) List() []Permission {
	out := make([]Permission, 0, len(s.members))
	for p := range s.members {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
