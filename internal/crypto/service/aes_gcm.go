package service

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"

	cryptoDomain "github.com/allisson/identity/internal/crypto/domain"
	apperrors "github.com/allisson/identity/internal/errors"
)

// AESGCMCipher implements the AEAD interface using AES-256-GCM.
//
// The cipher instance is stateless and safe for concurrent use from multiple
// goroutines. Each encryption operation generates a unique 12-byte nonce
// independently, and the 16-byte authentication tag is appended to the
// ciphertext.
type AESGCMCipher struct {
	aead cipher.AEAD
}

// NewAESGCM creates a new AES-256-GCM cipher instance.
//
// The key must be exactly 32 bytes (256 bits); anything else fails with
// ErrWeakSecret. This is a hard construction-time precondition: callers check
// it once at startup, never per operation.
func NewAESGCM(key []byte) (*AESGCMCipher, error) {
	if len(key) == 0 {
		return nil, cryptoDomain.ErrSecretRequired
	}
	if len(key) != 32 {
		return nil, cryptoDomain.ErrWeakSecret
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to create AES cipher")
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to create GCM")
	}

	return &AESGCMCipher{aead: aead}, nil
}

// Encrypt encrypts plaintext using AES-256-GCM with optional additional
// authenticated data. The AAD is authenticated but not encrypted, binding the
// ciphertext to its context; pass nil when no context binding is needed.
//
// The returned nonce must be stored alongside the ciphertext for decryption.
// Nonces are generated from crypto/rand and never reused with the same key.
func (a *AESGCMCipher) Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error) {
	nonce = make([]byte, a.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, apperrors.Wrap(err, "failed to generate nonce")
	}

	ciphertext = a.aead.Seal(nil, nonce, plaintext, aad)
	return ciphertext, nonce, nil
}

// Decrypt decrypts ciphertext using AES-256-GCM with the provided nonce and
// AAD. The authentication tag is verified before any plaintext is returned;
// tampered ciphertext, a wrong key, or mismatched AAD all fail with
// ErrDecryptFailed and no plaintext.
func (a *AESGCMCipher) Decrypt(ciphertext, nonce, aad []byte) ([]byte, error) {
	plaintext, err := a.aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, cryptoDomain.ErrDecryptFailed
	}
	return plaintext, nil
}

// NonceSize returns the GCM nonce length in bytes.
func (a *AESGCMCipher) NonceSize() int {
	return a.aead.NonceSize()
}
