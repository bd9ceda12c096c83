package domain

import (
	"github.com/allisson/identity/internal/errors"
)

// Session token errors.
var (
	// ErrTokenExpired indicates the token's signed expiry has passed.
	ErrTokenExpired = errors.Wrap(errors.ErrUnauthorized, "token expired")

	// ErrTokenInvalid indicates any non-expiry validation failure: bad
	// signature, decrypt failure, or malformed structure. Collapsed into one
	// kind so callers cannot be used as a validation oracle.
	ErrTokenInvalid = errors.Wrap(errors.ErrUnauthorized, "token invalid")
)
