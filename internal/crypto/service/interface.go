// Package service provides the cryptographic primitives for the identity core:
// salted credential hashing and authenticated payload encryption.
package service

import (
	cryptoDomain "github.com/allisson/identity/internal/crypto/domain"
)

// Hasher defines the interface for salted one-way credential hashing.
// Implementations must generate a fresh random salt per SaltAndHash call and
// compare derived hashes in constant time.
type Hasher interface {
	// SaltAndHash derives a credential from the password using a freshly
	// generated random salt.
	SaltAndHash(password string) (cryptoDomain.Credential, error)

	// Hash deterministically re-derives a credential using the supplied salt.
	// Used for verification against a stored credential.
	Hash(password string, salt []byte) (cryptoDomain.Credential, error)

	// Verify re-derives the hash with the stored salt and compares it against
	// the stored hash in constant time. A mismatch is a normal false result,
	// not an error; missing hash or salt material is ErrInvalidCredential.
	Verify(password string, stored cryptoDomain.Credential) (bool, error)
}

// AEAD defines the interface for Authenticated Encryption with Associated Data.
type AEAD interface {
	// Encrypt encrypts plaintext with optional AAD and returns ciphertext and nonce.
	Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error)

	// Decrypt decrypts ciphertext using the provided nonce and AAD. Fails with
	// ErrDecryptFailed on tampered ciphertext or wrong key.
	Decrypt(ciphertext, nonce, aad []byte) ([]byte, error)

	// NonceSize returns the nonce length in bytes, for callers that frame
	// nonce and ciphertext into a single blob.
	NonceSize() int
}
