// Package usecase defines business logic interfaces for role management and
// permission aggregation.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	roleDomain "github.com/allisson/identity/internal/role/domain"
)

// RoleRepository defines persistence operations for roles.
// Implementations must support transaction-aware operations via context
// propagation.
type RoleRepository interface {
	// Create stores a new role. A duplicate name is ErrConflict.
	Create(ctx context.Context, role *roleDomain.Role) error

	// GetByName retrieves a role by its unique name.
	// Returns ErrRoleNotFound if not found.
	GetByName(ctx context.Context, name string) (*roleDomain.Role, error)

	// List retrieves all roles ordered by name ascending.
	List(ctx context.Context) ([]*roleDomain.Role, error)

	// ListValid retrieves all roles whose expiry is null or after now,
	// ordered by name ascending.
	ListValid(ctx context.Context, now time.Time) ([]*roleDomain.Role, error)

	// ListValidByNames retrieves the non-expired roles matching any of the
	// given names. Unknown names simply do not appear in the result.
	ListValidByNames(ctx context.Context, names []string, now time.Time) ([]*roleDomain.Role, error)

	// UpdatePermissions replaces the permission set of a non-system role in a
	// single conditional statement. Returns ErrRoleNotFound when the role does
	// not exist or is a system role.
	UpdatePermissions(ctx context.Context, id uuid.UUID, permissions []string) (*roleDomain.Role, error)

	// Delete removes a non-system role by name. Deleting a missing or system
	// role affects no rows and returns ErrRoleNotFound.
	Delete(ctx context.Context, name string) error
}

// Registry defines the role registry: role lifecycle plus permission
// aggregation across role names.
type Registry interface {
	// Add creates the role, or merges permissions into an existing non-system
	// role. An existing system role is returned unchanged (append-immutable).
	Add(ctx context.Context, input *roleDomain.AddRoleInput) (*roleDomain.Role, error)

	// Get retrieves a role by name. Returns ErrRoleNotFound if not found.
	Get(ctx context.Context, name string) (*roleDomain.Role, error)

	// List retrieves all roles ordered by name ascending.
	List(ctx context.Context) ([]*roleDomain.Role, error)

	// Remove deletes a non-system role. Returns ErrSystemRoleImmutable for
	// system roles and ErrRoleNotFound for unknown names.
	Remove(ctx context.Context, name string) error

	// AddPermission unions permissions into the role's set.
	// Returns ErrSystemRoleImmutable for system roles.
	AddPermission(ctx context.Context, name string, permissions []string) (*roleDomain.Role, error)

	// RemovePermission subtracts permissions from the role's set.
	// Returns ErrSystemRoleImmutable for system roles.
	RemovePermission(ctx context.Context, name string, permissions []string) (*roleDomain.Role, error)

	// GetValidRoles returns the names of all non-expired roles, ascending.
	GetValidRoles(ctx context.Context) ([]string, error)

	// IsValidRole reports whether every requested role name is currently
	// valid (all-of). An empty request is not valid.
	IsValidRole(ctx context.Context, names []string) (bool, error)

	// CalculatePermissions unions the permission sets of the non-expired
	// roles matching names. Each name may itself be a comma-separated list.
	// Unknown names contribute nothing; the result is sorted.
	CalculatePermissions(ctx context.Context, names ...string) ([]string, error)

	// HasPermission reports exact membership of permission in one role's set.
	// An unknown role is false, not an error.
	HasPermission(ctx context.Context, name, permission string) (bool, error)
}
