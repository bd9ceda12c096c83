// Package usecase implements the password lifecycle: administrative resets,
// self-service changes, and the forgot-password token flow.
package usecase

import (
	"context"

	"github.com/google/uuid"

	userDomain "github.com/allisson/identity/internal/user/domain"
)

// Channel selects the contact route for password notifications.
type Channel string

// Notification channels.
const (
	ChannelNone  Channel = ""
	ChannelEmail Channel = "email"
	ChannelPhone Channel = "phone"
)

// Lifecycle defines the password lifecycle operations.
//
// The credential update and any notification are not transactional: the
// password change commits first and a notification failure never rolls it
// back.
type Lifecycle interface {
	// ResetPassword replaces the user's credential with a hash of the new
	// password and optionally notifies the user through the given channel.
	ResetPassword(ctx context.Context, userID uuid.UUID, newPassword string, channel Channel) error

	// ChangePassword verifies the old password and replaces the credential.
	// Identical old and new passwords (case-insensitive) fail with
	// ErrPasswordsIdentical before any store access; a wrong old password is
	// ErrPasswordMismatch; a missing or suspended account is ErrUserNotFound.
	ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error

	// ForgotPassword issues a short-lived numeric reset token and notifies
	// the account owner. An unknown username is the non-error (false, nil)
	// outcome so account existence does not leak through the error shape.
	ForgotPassword(ctx context.Context, username string) (bool, error)

	// ResetPasswordByToken consumes a pending reset token and replaces the
	// credential in one atomic step. The token is single-use; an unknown,
	// expired, or already-consumed token is ErrResetTokenInvalid.
	ResetPasswordByToken(ctx context.Context, token, newPassword string) (*userDomain.User, error)

	// IsResetTokenValid reports whether a reset token is pending and
	// unexpired, without consuming it.
	IsResetTokenValid(ctx context.Context, token string) (bool, error)
}
