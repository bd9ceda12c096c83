// Package usecase implements the role registry business logic.
package usecase

import (
	"context"
	"sort"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"

	"github.com/allisson/identity/internal/database"
	apperrors "github.com/allisson/identity/internal/errors"
	roleDomain "github.com/allisson/identity/internal/role/domain"
)

// roleRegistry implements Registry on top of a RoleRepository.
type roleRegistry struct {
	txManager database.TxManager
	roleRepo  RoleRepository
}

// Add creates the role, or merges permissions into an existing one.
// An existing system role is returned unchanged: the system flag makes it
// append-immutable from this path, without signalling an error to seeding
// callers that re-apply their role catalog on startup.
func (r *roleRegistry) Add(ctx context.Context, input *roleDomain.AddRoleInput) (*roleDomain.Role, error) {
	existing, err := r.roleRepo.GetByName(ctx, input.Name)
	if err != nil && !apperrors.Is(err, roleDomain.ErrRoleNotFound) {
		return nil, err
	}

	if existing != nil {
		if existing.IsSystem {
			return existing, nil
		}
		return r.AddPermission(ctx, input.Name, input.Permissions)
	}

	role := &roleDomain.Role{
		ID:          uuid.Must(uuid.NewV7()),
		Name:        input.Name,
		Permissions: dedupe(input.Permissions),
		ExpiryDate:  input.ExpiryDate,
		IsSystem:    input.IsSystem,
		CreatedAt:   time.Now().UTC(),
	}
	if err := r.roleRepo.Create(ctx, role); err != nil {
		return nil, err
	}
	return role, nil
}

// Get retrieves a role by name.
func (r *roleRegistry) Get(ctx context.Context, name string) (*roleDomain.Role, error) {
	return r.roleRepo.GetByName(ctx, name)
}

// List retrieves all roles ordered by name ascending.
func (r *roleRegistry) List(ctx context.Context) ([]*roleDomain.Role, error) {
	return r.roleRepo.List(ctx)
}

// Remove deletes a non-system role by name.
func (r *roleRegistry) Remove(ctx context.Context, name string) error {
	role, err := r.roleRepo.GetByName(ctx, name)
	if err != nil {
		return err
	}
	if role.IsSystem {
		return roleDomain.ErrSystemRoleImmutable
	}
	return r.roleRepo.Delete(ctx, name)
}

// AddPermission unions permissions into the role's set. The read and the
// conditional update run in one transaction so concurrent permission changes
// cannot lose each other's additions.
func (r *roleRegistry) AddPermission(
	ctx context.Context,
	name string,
	permissions []string,
) (*roleDomain.Role, error) {
	return r.mutatePermissions(ctx, name, func(current mapset.Set[string]) mapset.Set[string] {
		return current.Union(mapset.NewThreadUnsafeSet(permissions...))
	})
}

// RemovePermission subtracts permissions from the role's set.
func (r *roleRegistry) RemovePermission(
	ctx context.Context,
	name string,
	permissions []string,
) (*roleDomain.Role, error) {
	return r.mutatePermissions(ctx, name, func(current mapset.Set[string]) mapset.Set[string] {
		return current.Difference(mapset.NewThreadUnsafeSet(permissions...))
	})
}

// mutatePermissions applies a set transform to one role's permissions inside
// a transaction, rejecting system roles.
func (r *roleRegistry) mutatePermissions(
	ctx context.Context,
	name string,
	transform func(mapset.Set[string]) mapset.Set[string],
) (*roleDomain.Role, error) {
	var updated *roleDomain.Role

	err := r.txManager.WithTx(ctx, func(ctx context.Context) error {
		role, err := r.roleRepo.GetByName(ctx, name)
		if err != nil {
			return err
		}
		if role.IsSystem {
			return roleDomain.ErrSystemRoleImmutable
		}

		next := transform(mapset.NewThreadUnsafeSet(role.Permissions...)).ToSlice()
		sort.Strings(next)

		updated, err = r.roleRepo.UpdatePermissions(ctx, role.ID, next)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// GetValidRoles returns the names of all non-expired roles, name ascending.
func (r *roleRegistry) GetValidRoles(ctx context.Context) ([]string, error) {
	roles, err := r.roleRepo.ListValid(ctx, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(roles))
	for _, role := range roles {
		names = append(names, role.Name)
	}
	return names, nil
}

// IsValidRole reports whether every requested role name is currently valid.
// This is the all-of check used as the role-assignment guard: partial
// validity must not pass.
func (r *roleRegistry) IsValidRole(ctx context.Context, names []string) (bool, error) {
	requested := splitAll(names)
	if requested.Cardinality() == 0 {
		return false, nil
	}

	validNames, err := r.GetValidRoles(ctx)
	if err != nil {
		return false, err
	}

	return requested.IsSubset(mapset.NewThreadUnsafeSet(validNames...)), nil
}

// CalculatePermissions unions the permission sets of the non-expired roles
// matching names. Unknown names contribute nothing.
func (r *roleRegistry) CalculatePermissions(ctx context.Context, names ...string) ([]string, error) {
	requested := splitAll(names)
	if requested.Cardinality() == 0 {
		return []string{}, nil
	}

	roles, err := r.roleRepo.ListValidByNames(ctx, requested.ToSlice(), time.Now().UTC())
	if err != nil {
		return nil, err
	}

	permissions := mapset.NewThreadUnsafeSet[string]()
	for _, role := range roles {
		permissions.Append(role.Permissions...)
	}

	result := permissions.ToSlice()
	sort.Strings(result)
	return result, nil
}

// HasPermission reports exact membership of permission in one role's set.
func (r *roleRegistry) HasPermission(ctx context.Context, name, permission string) (bool, error) {
	role, err := r.roleRepo.GetByName(ctx, name)
	if err != nil {
		if apperrors.Is(err, roleDomain.ErrRoleNotFound) {
			return false, nil
		}
		return false, err
	}
	return role.HasPermission(permission), nil
}

// splitAll expands possibly comma-separated entries into a clean name set.
func splitAll(names []string) mapset.Set[string] {
	out := mapset.NewThreadUnsafeSet[string]()
	for _, name := range names {
		out.Append(roleDomain.SplitNames(name)...)
	}
	return out
}

// dedupe returns permissions with duplicates removed, sorted.
func dedupe(permissions []string) []string {
	out := mapset.NewThreadUnsafeSet(permissions...).ToSlice()
	sort.Strings(out)
	return out
}

// NewRegistry creates a role registry with the provided dependencies.
func NewRegistry(txManager database.TxManager, roleRepo RoleRepository) Registry {
	return &roleRegistry{
		txManager: txManager,
		roleRepo:  roleRepo,
	}
}
