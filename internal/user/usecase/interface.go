// Package usecase implements the user account business logic: registration,
// authentication, role assignment, and account status management.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/identity/internal/crypto/domain"
	userDomain "github.com/allisson/identity/internal/user/domain"
)

// UserRepository defines persistence operations for users.
// Implementations must support transaction-aware operations via context
// propagation, and every mutation is a single conditional statement so
// concurrent updates cannot lose each other's writes.
type UserRepository interface {
	// Create stores a new user. A duplicate username or email is
	// ErrUserAlreadyExists.
	Create(ctx context.Context, user *userDomain.User) error

	// GetByID retrieves a user by id. Returns ErrUserNotFound if not found.
	GetByID(ctx context.Context, id uuid.UUID) (*userDomain.User, error)

	// GetByUsername retrieves a user by username.
	// Returns ErrUserNotFound if not found.
	GetByUsername(ctx context.Context, username string) (*userDomain.User, error)

	// List retrieves users ordered by username ascending with pagination.
	List(ctx context.Context, offset, limit int) ([]*userDomain.User, error)

	// UpdateRoles replaces the user's role assignment in a single conditional
	// statement and returns the updated user.
	UpdateRoles(ctx context.Context, id uuid.UUID, roles []string) (*userDomain.User, error)

	// SetActive flips the account's active flag. A missing user is
	// ErrUserNotFound.
	SetActive(ctx context.Context, id uuid.UUID, active bool) error

	// SetApproved flips the account's approved flag. A missing user is
	// ErrUserNotFound.
	SetApproved(ctx context.Context, id uuid.UUID, approved bool) error

	// UpdateCredential replaces the stored credential of an active user.
	// A missing or suspended user affects no rows and is ErrUserNotFound.
	UpdateCredential(ctx context.Context, id uuid.UUID, credential cryptoDomain.Credential) error

	// SetResetToken stores a pending reset token and its expiry on the user.
	SetResetToken(ctx context.Context, id uuid.UUID, token string, expiry time.Time) error

	// GetByResetToken retrieves the user holding a non-expired reset token.
	// Returns ErrResetTokenInvalid when no such user exists.
	GetByResetToken(ctx context.Context, token string, now time.Time) (*userDomain.User, error)

	// ConsumeResetToken replaces the credential of the user holding a
	// non-expired reset token and clears the token, all in one conditional
	// statement. Returns ErrResetTokenInvalid when the token does not match.
	ConsumeResetToken(
		ctx context.Context,
		token string,
		credential cryptoDomain.Credential,
		now time.Time,
	) (*userDomain.User, error)
}

// AuthInfo is the result of validating a session token: the account it was
// minted for plus the effective permission set aggregated from the account's
// currently valid roles.
type AuthInfo struct {
	User        *userDomain.User
	Permissions []string
}

// HasPermission reports membership of permission in the aggregated set.
func (a *AuthInfo) HasPermission(permission string) bool {
	for _, p := range a.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// Manager defines the user account business logic operations.
type Manager interface {
	// Create registers a new user. When no password is supplied a random
	// numeric initial password is generated, and it is delivered through the
	// notification collaborator either way.
	Create(ctx context.Context, input CreateUserInput) (*userDomain.User, error)

	// Authenticate verifies username and password and mints a session token.
	// Unknown username, wrong password, suspended or unapproved account all
	// fail with the same ErrInvalidCredentials.
	Authenticate(ctx context.Context, username, password string) (*userDomain.User, string, error)

	// ValidateToken validates a session token and resolves the account and
	// its aggregated permissions.
	ValidateToken(ctx context.Context, token string) (*AuthInfo, error)

	// AddRoles assigns roles to the user. Every requested role must be
	// currently valid; partial validity fails with ErrInvalidRoles.
	AddRoles(ctx context.Context, username string, roles []string) (*userDomain.User, error)

	// RemoveRole unassigns one role from the user. Removing a role the user
	// does not hold is a no-op.
	RemoveRole(ctx context.Context, username, role string) (*userDomain.User, error)

	// Suspend deactivates the account.
	Suspend(ctx context.Context, username string) error

	// Restore reactivates a suspended account.
	Restore(ctx context.Context, username string) error

	// Approve marks the account as approved.
	Approve(ctx context.Context, username string) error

	// Get retrieves a user by username.
	Get(ctx context.Context, username string) (*userDomain.User, error)

	// List retrieves users ordered by username ascending with pagination.
	List(ctx context.Context, offset, limit int) ([]*userDomain.User, error)
}
