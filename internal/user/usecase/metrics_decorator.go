package usecase

import (
	"context"
	"time"

	"github.com/allisson/identity/internal/metrics"
	userDomain "github.com/allisson/identity/internal/user/domain"
)

// managerWithMetrics decorates Manager with metrics instrumentation.
type managerWithMetrics struct {
	next    Manager
	metrics metrics.BusinessMetrics
}

// NewManagerWithMetrics wraps a Manager with metrics recording.
func NewManagerWithMetrics(manager Manager, m metrics.BusinessMetrics) Manager {
	return &managerWithMetrics{
		next:    manager,
		metrics: m,
	}
}

// record emits the operation counter and duration histogram for one call.
func (m *managerWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.metrics.RecordOperation(ctx, "user", operation, status)
	m.metrics.RecordDuration(ctx, "user", operation, time.Since(start), status)
}

func (m *managerWithMetrics) Create(
	ctx context.Context,
	input CreateUserInput,
) (*userDomain.User, error) {
	start := time.Now()
	user, err := m.next.Create(ctx, input)
	m.record(ctx, "user_create", start, err)
	return user, err
}

func (m *managerWithMetrics) Authenticate(
	ctx context.Context,
	username, password string,
) (*userDomain.User, string, error) {
	start := time.Now()
	user, token, err := m.next.Authenticate(ctx, username, password)
	m.record(ctx, "authenticate", start, err)
	return user, token, err
}

func (m *managerWithMetrics) ValidateToken(ctx context.Context, token string) (*AuthInfo, error) {
	start := time.Now()
	info, err := m.next.ValidateToken(ctx, token)
	m.record(ctx, "validate_token", start, err)
	return info, err
}

func (m *managerWithMetrics) AddRoles(
	ctx context.Context,
	username string,
	roles []string,
) (*userDomain.User, error) {
	start := time.Now()
	user, err := m.next.AddRoles(ctx, username, roles)
	m.record(ctx, "roles_add", start, err)
	return user, err
}

func (m *managerWithMetrics) RemoveRole(
	ctx context.Context,
	username, role string,
) (*userDomain.User, error) {
	start := time.Now()
	user, err := m.next.RemoveRole(ctx, username, role)
	m.record(ctx, "role_remove", start, err)
	return user, err
}

func (m *managerWithMetrics) Suspend(ctx context.Context, username string) error {
	start := time.Now()
	err := m.next.Suspend(ctx, username)
	m.record(ctx, "suspend", start, err)
	return err
}

func (m *managerWithMetrics) Restore(ctx context.Context, username string) error {
	start := time.Now()
	err := m.next.Restore(ctx, username)
	m.record(ctx, "restore", start, err)
	return err
}

func (m *managerWithMetrics) Approve(ctx context.Context, username string) error {
	start := time.Now()
	err := m.next.Approve(ctx, username)
	m.record(ctx, "approve", start, err)
	return err
}

func (m *managerWithMetrics) Get(ctx context.Context, username string) (*userDomain.User, error) {
	start := time.Now()
	user, err := m.next.Get(ctx, username)
	m.record(ctx, "user_get", start, err)
	return user, err
}

func (m *managerWithMetrics) List(
	ctx context.Context,
	offset, limit int,
) ([]*userDomain.User, error) {
	start := time.Now()
	users, err := m.next.List(ctx, offset, limit)
	m.record(ctx, "user_list", start, err)
	return users, err
}
