package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	accessKeyDomain "github.com/allisson/identity/internal/accesskey/domain"
	"github.com/allisson/identity/internal/metrics"
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
	m.metrics.RecordOperation(ctx, "access_key", operation, status)
	m.metrics.RecordDuration(ctx, "access_key", operation, time.Since(start), status)
}

func (m *managerWithMetrics) Create(
	ctx context.Context,
	input CreateAccessKeyInput,
) (*CreateAccessKeyOutput, error) {
	start := time.Now()
	output, err := m.next.Create(ctx, input)
	m.record(ctx, "create", start, err)
	return output, err
}

func (m *managerWithMetrics) Validate(
	ctx context.Context,
	key, secret string,
) (*accessKeyDomain.AccessKey, bool, error) {
	start := time.Now()
	accessKey, ok, err := m.next.Validate(ctx, key, secret)
	m.record(ctx, "validate", start, err)
	return accessKey, ok, err
}

func (m *managerWithMetrics) GetToken(
	ctx context.Context,
	key, secret string,
	tokenData map[string]any,
) (string, error) {
	start := time.Now()
	token, err := m.next.GetToken(ctx, key, secret, tokenData)
	m.record(ctx, "get_token", start, err)
	return token, err
}

func (m *managerWithMetrics) List(
	ctx context.Context,
	userID uuid.UUID,
) ([]*accessKeyDomain.AccessKey, error) {
	start := time.Now()
	accessKeys, err := m.next.List(ctx, userID)
	m.record(ctx, "list", start, err)
	return accessKeys, err
}

func (m *managerWithMetrics) Remove(ctx context.Context, key string) error {
	start := time.Now()
	err := m.next.Remove(ctx, key)
	m.record(ctx, "remove", start, err)
	return err
}
