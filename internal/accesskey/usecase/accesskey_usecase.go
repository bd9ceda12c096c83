package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	accessKeyDomain "github.com/allisson/identity/internal/accesskey/domain"
	cryptoService "github.com/allisson/identity/internal/crypto/service"
	apperrors "github.com/allisson/identity/internal/errors"
	tokenDomain "github.com/allisson/identity/internal/token/domain"
	tokenService "github.com/allisson/identity/internal/token/service"
	userDomain "github.com/allisson/identity/internal/user/domain"
	appValidation "github.com/allisson/identity/internal/validation"
)

const (
	// keyRandomBytes sizes the public key handle: 20 hex characters after
	// the prefix.
	keyRandomBytes = 10

	// secretRandomBytes sizes the plaintext secret: 96 hex characters of
	// high-entropy material.
	secretRandomBytes = 48

	// tokenDuration bounds the blast radius of a leaked derived token:
	// access keys always mint short-lived session tokens, never long-lived
	// ones, regardless of the normal session duration.
	tokenDuration = 20 * time.Minute
)

// accessKeyManager implements Manager.
type accessKeyManager struct {
	accessKeyRepo AccessKeyRepository
	users         UserGetter
	hasher        cryptoService.Hasher
	tokenManager  tokenService.Manager
}

// NewManager creates the access key manager with the provided dependencies.
func NewManager(
	accessKeyRepo AccessKeyRepository,
	users UserGetter,
	hasher cryptoService.Hasher,
	tokenManager tokenService.Manager,
) Manager {
	return &accessKeyManager{
		accessKeyRepo: accessKeyRepo,
		users:         users,
		hasher:        hasher,
		tokenManager:  tokenManager,
	}
}

// validateCreateInput validates the issuance input.
func (a *accessKeyManager) validateCreateInput(input CreateAccessKeyInput) error {
	err := validation.ValidateStruct(&input,
		validation.Field(&input.Name,
			validation.Required.Error("name is required"),
			appValidation.NotBlank,
			validation.Length(1, 255).Error("name must be between 1 and 255 characters"),
		),
	)
	if err != nil {
		return appValidation.WrapValidationError(err)
	}
	if input.UserID == uuid.Nil {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "user_id is required")
	}
	return nil
}

// Create issues a new access key. The plaintext secret exists only in the
// returned output; storage holds its salted hash.
func (a *accessKeyManager) Create(
	ctx context.Context,
	input CreateAccessKeyInput,
) (*CreateAccessKeyOutput, error) {
	if err := a.validateCreateInput(input); err != nil {
		return nil, err
	}

	keySuffix, err := cryptoService.RandomHex(keyRandomBytes)
	if err != nil {
		return nil, err
	}
	secret, err := cryptoService.RandomHex(secretRandomBytes)
	if err != nil {
		return nil, err
	}

	credential, err := a.hasher.SaltAndHash(secret)
	if err != nil {
		return nil, err
	}

	accessKey := &accessKeyDomain.AccessKey{
		ID:         uuid.Must(uuid.NewV7()),
		UserID:     input.UserID,
		Name:       strings.TrimSpace(input.Name),
		Key:        accessKeyDomain.KeyPrefix + strings.ToUpper(keySuffix),
		Secret:     credential,
		Scopes:     input.Scopes,
		ExpiryDate: input.ExpiryDate,
		CreatedAt:  time.Now().UTC(),
	}

	if err := a.accessKeyRepo.Create(ctx, accessKey); err != nil {
		return nil, err
	}

	return &CreateAccessKeyOutput{AccessKey: accessKey, Secret: secret}, nil
}

// Validate checks a key/secret pair. Not-found and wrong-secret are the same
// (nil, false) outcome, and a hash is derived even when the key is unknown so
// the miss is not observable through timing.
func (a *accessKeyManager) Validate(
	ctx context.Context,
	key, secret string,
) (*accessKeyDomain.AccessKey, bool, error) {
	accessKey, err := a.accessKeyRepo.GetActiveByKey(ctx, key, time.Now().UTC())
	if err != nil {
		if apperrors.Is(err, accessKeyDomain.ErrAccessKeyNotFound) {
			_, _ = a.hasher.SaltAndHash(secret)
			return nil, false, nil
		}
		return nil, false, err
	}

	ok, err := a.hasher.Verify(secret, accessKey.Secret)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	return accessKey, true, nil
}

// GetToken exchanges a valid key/secret pair for a session token minted for
// the key's owner. The token carries the caller-supplied data merged with the
// owner's id and name; the fixed short duration is not overridable.
func (a *accessKeyManager) GetToken(
	ctx context.Context,
	key, secret string,
	tokenData map[string]any,
) (string, error) {
	accessKey, ok, err := a.Validate(ctx, key, secret)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", accessKeyDomain.ErrInvalidAccessKey
	}

	user, err := a.users.GetByID(ctx, accessKey.UserID)
	if err != nil {
		if apperrors.Is(err, userDomain.ErrUserNotFound) {
			return "", accessKeyDomain.ErrInvalidAccessKey
		}
		return "", err
	}
	if !user.CanAuthenticate() {
		return "", accessKeyDomain.ErrInvalidAccessKey
	}

	payload := make(map[string]any, len(tokenData)+2)
	for k, v := range tokenData {
		payload[k] = v
	}
	payload[tokenDomain.PayloadUserID] = user.ID.String()
	payload[tokenDomain.PayloadName] = user.Name

	return a.tokenManager.Generate(payload, tokenDuration)
}

// List retrieves the user's access keys without secret material.
func (a *accessKeyManager) List(
	ctx context.Context,
	userID uuid.UUID,
) ([]*accessKeyDomain.AccessKey, error) {
	return a.accessKeyRepo.ListByUserID(ctx, userID)
}

// Remove deletes an access key by its key. Idempotent.
func (a *accessKeyManager) Remove(ctx context.Context, key string) error {
	return a.accessKeyRepo.Delete(ctx, key)
}
