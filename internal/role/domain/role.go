// Package domain defines role and permission domain models.
//
// A role is a named, possibly time-limited bundle of permission strings.
// Permissions are opaque identifiers; authorization is set union across a
// user's roles. Roles flagged is_system are immutable and undeletable through
// the normal management operations.
package domain

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role represents a named permission bundle.
type Role struct {
	ID          uuid.UUID
	Name        string
	Permissions []string
	ExpiryDate  *time.Time // nil means the role never expires
	IsSystem    bool
	CreatedAt   time.Time
}

// IsValid reports whether the role participates in permission aggregation at
// the given instant. Expired roles are excluded but never deleted.
func (r *Role) IsValid(now time.Time) bool {
	return r.ExpiryDate == nil || r.ExpiryDate.After(now)
}

// HasPermission reports exact membership of permission in the role's set.
func (r *Role) HasPermission(permission string) bool {
	return slices.Contains(r.Permissions, permission)
}

// AddRoleInput contains the parameters for creating or merging a role.
type AddRoleInput struct {
	Name        string
	Permissions []string
	ExpiryDate  *time.Time
	IsSystem    bool
}

// SplitNames splits a comma-separated role or permission list into clean
// names, dropping empty entries.
func SplitNames(names string) []string {
	parts := strings.Split(names, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
