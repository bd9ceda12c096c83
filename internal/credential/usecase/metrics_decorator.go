package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/identity/internal/metrics"
	userDomain "github.com/allisson/identity/internal/user/domain"
)

// lifecycleWithMetrics decorates Lifecycle with metrics instrumentation.
type lifecycleWithMetrics struct {
	next    Lifecycle
	metrics metrics.BusinessMetrics
}

// NewLifecycleWithMetrics wraps a Lifecycle with metrics recording.
func NewLifecycleWithMetrics(lifecycle Lifecycle, m metrics.BusinessMetrics) Lifecycle {
	return &lifecycleWithMetrics{
		next:    lifecycle,
		metrics: m,
	}
}

// record emits the operation counter and duration histogram for one call.
func (l *lifecycleWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	l.metrics.RecordOperation(ctx, "credential", operation, status)
	l.metrics.RecordDuration(ctx, "credential", operation, time.Since(start), status)
}

func (l *lifecycleWithMetrics) ResetPassword(
	ctx context.Context,
	userID uuid.UUID,
	newPassword string,
	channel Channel,
) error {
	start := time.Now()
	err := l.next.ResetPassword(ctx, userID, newPassword, channel)
	l.record(ctx, "reset_password", start, err)
	return err
}

func (l *lifecycleWithMetrics) ChangePassword(
	ctx context.Context,
	userID uuid.UUID,
	oldPassword, newPassword string,
) error {
	start := time.Now()
	err := l.next.ChangePassword(ctx, userID, oldPassword, newPassword)
	l.record(ctx, "change_password", start, err)
	return err
}

func (l *lifecycleWithMetrics) ForgotPassword(
	ctx context.Context,
	username string,
) (bool, error) {
	start := time.Now()
	found, err := l.next.ForgotPassword(ctx, username)
	l.record(ctx, "forgot_password", start, err)
	return found, err
}

func (l *lifecycleWithMetrics) ResetPasswordByToken(
	ctx context.Context,
	token, newPassword string,
) (*userDomain.User, error) {
	start := time.Now()
	user, err := l.next.ResetPasswordByToken(ctx, token, newPassword)
	l.record(ctx, "reset_password_by_token", start, err)
	return user, err
}

func (l *lifecycleWithMetrics) IsResetTokenValid(
	ctx context.Context,
	token string,
) (bool, error) {
	start := time.Now()
	valid, err := l.next.IsResetTokenValid(ctx, token)
	l.record(ctx, "is_reset_token_valid", start, err)
	return valid, err
}
