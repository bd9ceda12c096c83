package service

import (
	"context"
	"encoding/base64"

	"gocloud.dev/secrets"

	cryptoDomain "github.com/allisson/identity/internal/crypto/domain"
	apperrors "github.com/allisson/identity/internal/errors"

	// Register all KMS provider drivers
	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/azurekeyvault"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"
)

// SecretSource describes where the process token secret comes from.
// When KMSKeyURI is set, KMSCiphertext (base64 of the secret encrypted by the
// KMS key) is decrypted through a gocloud keeper; otherwise Secret is used
// directly.
type SecretSource struct {
	Secret        string
	KMSKeyURI     string
	KMSCiphertext string
}

// LoadSecret resolves the 32-byte process secret from its configured source.
// Supports the gocloud keeper schemes: gcpkms://, awskms://, azurekeyvault://,
// hashivault://, base64key://.
func LoadSecret(ctx context.Context, src SecretSource) ([]byte, error) {
	if src.KMSKeyURI == "" {
		if src.Secret == "" {
			return nil, cryptoDomain.ErrSecretRequired
		}
		if len(src.Secret) != SecretSize {
			return nil, cryptoDomain.ErrWeakSecret
		}
		return []byte(src.Secret), nil
	}

	keeper, err := secrets.OpenKeeper(ctx, src.KMSKeyURI)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to open KMS keeper")
	}
	defer keeper.Close()

	ciphertext, err := base64.StdEncoding.DecodeString(src.KMSCiphertext)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to decode KMS ciphertext")
	}
	defer cryptoDomain.Zero(ciphertext)

	secret, err := keeper.Decrypt(ctx, ciphertext)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to decrypt secret via KMS")
	}
	if len(secret) != SecretSize {
		cryptoDomain.Zero(secret)
		return nil, cryptoDomain.ErrWeakSecret
	}

	return secret, nil
}
