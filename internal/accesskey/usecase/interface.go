// Package usecase implements the access key business logic: issuance,
// validation, and exchanging a key/secret pair for a session token.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	accessKeyDomain "github.com/allisson/identity/internal/accesskey/domain"
	userDomain "github.com/allisson/identity/internal/user/domain"
)

// AccessKeyRepository defines persistence operations for access keys.
type AccessKeyRepository interface {
	// Create stores a new access key. A duplicate key is ErrConflict.
	Create(ctx context.Context, accessKey *accessKeyDomain.AccessKey) error

	// GetActiveByKey retrieves a non-expired access key by its unique key.
	// Expired or unknown keys are both ErrAccessKeyNotFound.
	GetActiveByKey(ctx context.Context, key string, now time.Time) (*accessKeyDomain.AccessKey, error)

	// ListByUserID retrieves the user's access keys ordered by creation time,
	// without secret material.
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]*accessKeyDomain.AccessKey, error)

	// Delete removes an access key by its key. Deleting an unknown key is a
	// no-op, not an error.
	Delete(ctx context.Context, key string) error
}

// UserGetter resolves the account that owns an access key.
type UserGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*userDomain.User, error)
}

// CreateAccessKeyInput contains the parameters for issuing an access key.
type CreateAccessKeyInput struct {
	UserID     uuid.UUID  `json:"user_id"`
	Name       string     `json:"name"`
	Scopes     []string   `json:"scopes"`
	ExpiryDate *time.Time `json:"expiry_date"`
}

// CreateAccessKeyOutput is the issuance result. Secret is the plaintext
// secret, available exactly once; it is never retrievable again.
type CreateAccessKeyOutput struct {
	AccessKey *accessKeyDomain.AccessKey
	Secret    string
}

// Manager defines the access key business logic operations.
type Manager interface {
	// Create issues a new access key for the user and returns the plaintext
	// secret exactly once.
	Create(ctx context.Context, input CreateAccessKeyInput) (*CreateAccessKeyOutput, error)

	// Validate looks up a non-expired key and compares the secret against the
	// stored hash. Not-found and mismatch are both the uniform (nil, false)
	// outcome; the error reports infrastructure failures only.
	Validate(ctx context.Context, key, secret string) (*accessKeyDomain.AccessKey, bool, error)

	// GetToken exchanges a valid key/secret pair for a short-lived session
	// token minted for the key's owner. Any credential failure, an expired
	// key, or a suspended owner is ErrInvalidAccessKey.
	GetToken(ctx context.Context, key, secret string, tokenData map[string]any) (string, error)

	// List retrieves the user's access keys without secret material.
	List(ctx context.Context, userID uuid.UUID) ([]*accessKeyDomain.AccessKey, error)

	// Remove deletes an access key by its key. Idempotent.
	Remove(ctx context.Context, key string) error
}
