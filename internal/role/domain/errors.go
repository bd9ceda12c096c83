package domain

import (
	"github.com/allisson/identity/internal/errors"
)

// Role errors.
var (
	// ErrRoleNotFound indicates a role with the specified name was not found.
	ErrRoleNotFound = errors.Wrap(errors.ErrNotFound, "role not found")

	// ErrSystemRoleImmutable indicates an attempt to mutate or delete a role
	// flagged is_system. This is an explicit error rather than a silent no-op
	// so callers can distinguish "succeeded" from "blocked by policy".
	ErrSystemRoleImmutable = errors.Wrap(errors.ErrForbidden, "system role is immutable")
)
