package usecase

import (
	"context"
	"time"

	"github.com/allisson/identity/internal/metrics"
	roleDomain "github.com/allisson/identity/internal/role/domain"
)

// registryWithMetrics decorates Registry with metrics instrumentation.
type registryWithMetrics struct {
	next    Registry
	metrics metrics.BusinessMetrics
}

// NewRegistryWithMetrics wraps a Registry with metrics recording.
func NewRegistryWithMetrics(registry Registry, m metrics.BusinessMetrics) Registry {
	return &registryWithMetrics{
		next:    registry,
		metrics: m,
	}
}

// record emits the operation counter and duration histogram for one call.
func (r *registryWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	r.metrics.RecordOperation(ctx, "role", operation, status)
	r.metrics.RecordDuration(ctx, "role", operation, time.Since(start), status)
}

func (r *registryWithMetrics) Add(
	ctx context.Context,
	input *roleDomain.AddRoleInput,
) (*roleDomain.Role, error) {
	start := time.Now()
	role, err := r.next.Add(ctx, input)
	r.record(ctx, "role_add", start, err)
	return role, err
}

func (r *registryWithMetrics) Get(ctx context.Context, name string) (*roleDomain.Role, error) {
	start := time.Now()
	role, err := r.next.Get(ctx, name)
	r.record(ctx, "role_get", start, err)
	return role, err
}

func (r *registryWithMetrics) List(ctx context.Context) ([]*roleDomain.Role, error) {
	start := time.Now()
	roles, err := r.next.List(ctx)
	r.record(ctx, "role_list", start, err)
	return roles, err
}

func (r *registryWithMetrics) Remove(ctx context.Context, name string) error {
	start := time.Now()
	err := r.next.Remove(ctx, name)
	r.record(ctx, "role_remove", start, err)
	return err
}

func (r *registryWithMetrics) AddPermission(
	ctx context.Context,
	name string,
	permissions []string,
) (*roleDomain.Role, error) {
	start := time.Now()
	role, err := r.next.AddPermission(ctx, name, permissions)
	r.record(ctx, "permission_add", start, err)
	return role, err
}

func (r *registryWithMetrics) RemovePermission(
	ctx context.Context,
	name string,
	permissions []string,
) (*roleDomain.Role, error) {
	start := time.Now()
	role, err := r.next.RemovePermission(ctx, name, permissions)
	r.record(ctx, "permission_remove", start, err)
	return role, err
}

func (r *registryWithMetrics) GetValidRoles(ctx context.Context) ([]string, error) {
	start := time.Now()
	names, err := r.next.GetValidRoles(ctx)
	r.record(ctx, "valid_roles", start, err)
	return names, err
}

func (r *registryWithMetrics) IsValidRole(ctx context.Context, names []string) (bool, error) {
	start := time.Now()
	ok, err := r.next.IsValidRole(ctx, names)
	r.record(ctx, "is_valid_role", start, err)
	return ok, err
}

func (r *registryWithMetrics) CalculatePermissions(
	ctx context.Context,
	names ...string,
) ([]string, error) {
	start := time.Now()
	permissions, err := r.next.CalculatePermissions(ctx, names...)
	r.record(ctx, "calculate_permissions", start, err)
	return permissions, err
}

func (r *registryWithMetrics) HasPermission(ctx context.Context, name, permission string) (bool, error) {
	start := time.Now()
	ok, err := r.next.HasPermission(ctx, name, permission)
	r.record(ctx, "has_permission", start, err)
	return ok, err
}
