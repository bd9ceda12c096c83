package service

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"

	"golang.org/x/crypto/pbkdf2"

	cryptoDomain "github.com/allisson/identity/internal/crypto/domain"
	apperrors "github.com/allisson/identity/internal/errors"
)

// PBKDF2 work factor, version 1. Changing any of these invalidates stored
// credentials, so bumps must ship alongside a rehash-on-login migration.
const (
	hashIterations = 210_000
	hashKeySize    = 64
	hashSaltSize   = 16
)

// pbkdf2Hasher implements Hasher using PBKDF2-SHA512 with per-credential salts.
type pbkdf2Hasher struct{}

// newSalt generates a fresh random salt of the fixed size.
func newSalt() ([]byte, error) {
	salt := make([]byte, hashSaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, apperrors.Wrap(err, "failed to generate salt")
	}
	return salt, nil
}

// SaltAndHash derives a credential from the password using a fresh 16-byte
// random salt. The caller persists both hash and salt; the password itself is
// never stored.
func (h *pbkdf2Hasher) SaltAndHash(password string) (cryptoDomain.Credential, error) {
	salt, err := newSalt()
	if err != nil {
		return cryptoDomain.Credential{}, err
	}
	return h.Hash(password, salt)
}

// Hash deterministically re-derives a credential using the supplied salt.
func (h *pbkdf2Hasher) Hash(password string, salt []byte) (cryptoDomain.Credential, error) {
	if len(salt) == 0 {
		return cryptoDomain.Credential{}, cryptoDomain.ErrInvalidCredential
	}

	hash := pbkdf2.Key([]byte(password), salt, hashIterations, hashKeySize, sha512.New)
	return cryptoDomain.Credential{Hash: hash, Salt: salt}, nil
}

// Verify re-derives the hash with the stored salt and compares it against the
// stored hash in constant time. Variable-time comparison would leak how many
// leading bytes match, so subtle.ConstantTimeCompare is mandatory here.
func (h *pbkdf2Hasher) Verify(password string, stored cryptoDomain.Credential) (bool, error) {
	if len(stored.Hash) == 0 || len(stored.Salt) == 0 {
		return false, cryptoDomain.ErrInvalidCredential
	}

	derived, err := h.Hash(password, stored.Salt)
	if err != nil {
		return false, err
	}

	return subtle.ConstantTimeCompare(derived.Hash, stored.Hash) == 1, nil
}

// NewHasher creates a new Hasher backed by PBKDF2-SHA512.
func NewHasher() Hasher {
	return &pbkdf2Hasher{}
}
