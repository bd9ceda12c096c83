// Package domain defines the access key (personal access token) domain model.
//
// An access key is a long-lived key/secret pair usable to mint short-lived
// session tokens without interactive login. The key is the public lookup
// handle; the secret is shown exactly once at creation and only its salted
// hash is stored.
package domain

import (
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/identity/internal/crypto/domain"
	"github.com/allisson/identity/internal/errors"
)

// KeyPrefix identifies access keys on sight in logs and support tickets
// without revealing anything.
const KeyPrefix = "IK"

// AccessKey represents a long-lived credential owned by a user. Secret holds
// the salted hash of the secret; it is never serialized outward and never
// decrypted, only compared via re-hash with the stored salt.
type AccessKey struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	Name       string
	Key        string
	Secret     cryptoDomain.Credential
	Scopes     []string
	ExpiryDate *time.Time // nil means the key never expires
	CreatedAt  time.Time
}

// IsValid reports whether the key is usable at the given instant.
func (a *AccessKey) IsValid(now time.Time) bool {
	return a.ExpiryDate == nil || a.ExpiryDate.After(now)
}

// Access key errors.
var (
	// ErrAccessKeyNotFound indicates no access key matches the lookup.
	ErrAccessKeyNotFound = errors.Wrap(errors.ErrNotFound, "access key not found")

	// ErrInvalidAccessKey is the uniform credential failure for token
	// minting: unknown key, expired key, wrong secret, and suspended owner
	// all surface the same way.
	ErrInvalidAccessKey = errors.Wrap(errors.ErrUnauthorized, "invalid access key credentials")
)
