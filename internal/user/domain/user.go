// Package domain defines the core user domain entities and types.
package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/identity/internal/crypto/domain"
	"github.com/allisson/identity/internal/errors"
)

// User represents an account in the system. Credential holds the salted
// password hash and is replaced wholesale on every password change; it must
// never be logged or serialized outward.
type User struct {
	ID         uuid.UUID
	Username   string
	Name       string
	Email      string
	Phone      string
	Roles      []string
	Credential cryptoDomain.Credential
	IsActive   bool
	IsApproved bool

	// ResetToken and ResetTokenExpiry track a pending password reset. The
	// token is single-use: consuming it clears both fields.
	ResetToken       *string
	ResetTokenExpiry *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasRole reports whether the role name is assigned to the user.
func (u *User) HasRole(name string) bool {
	return slices.Contains(u.Roles, name)
}

// CanAuthenticate reports whether the account may log in at all: suspended or
// not-yet-approved accounts are refused.
func (u *User) CanAuthenticate() bool {
	return u.IsActive && u.IsApproved
}

// Domain-specific errors for user operations.
var (
	// ErrUserNotFound indicates the requested user does not exist or is not
	// active where an active account is required.
	ErrUserNotFound = errors.Wrap(errors.ErrNotFound, "user not found")

	// ErrUserAlreadyExists indicates a user with the same username or email
	// already exists.
	ErrUserAlreadyExists = errors.Wrap(errors.ErrConflict, "user already exists")

	// ErrInvalidCredentials is the uniform authentication failure: unknown
	// username, wrong password, suspended or unapproved account all surface
	// the same way to resist account enumeration.
	ErrInvalidCredentials = errors.Wrap(errors.ErrUnauthorized, "invalid credentials")

	// ErrPasswordsIdentical indicates a password change where old and new
	// passwords match.
	ErrPasswordsIdentical = errors.Wrap(errors.ErrInvalidInput, "new password must differ from the current password")

	// ErrPasswordMismatch indicates the supplied current password failed
	// verification during a password change.
	ErrPasswordMismatch = errors.Wrap(errors.ErrUnauthorized, "password mismatch")

	// ErrResetTokenInvalid indicates a reset token that is unknown, expired,
	// or already consumed. Collapsed into one kind on purpose.
	ErrResetTokenInvalid = errors.Wrap(errors.ErrUnauthorized, "reset token invalid or expired")

	// ErrInvalidRoles indicates a role assignment naming at least one role
	// that is not currently valid.
	ErrInvalidRoles = errors.Wrap(errors.ErrInvalidInput, "one or more roles are not valid")
)
