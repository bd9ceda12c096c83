package domain

import (
	"github.com/allisson/identity/internal/errors"
)

// Cryptographic errors.
var (
	// ErrSecretRequired indicates no process secret was configured.
	// Constructor-time and fatal: the process must refuse to start.
	ErrSecretRequired = errors.New("secret is required")

	// ErrWeakSecret indicates the process secret is not exactly 32 bytes.
	// Constructor-time and fatal: the process must refuse to start.
	ErrWeakSecret = errors.New("secret must be exactly 32 bytes")

	// ErrDecryptFailed indicates ciphertext authentication failed (tampered
	// data or wrong key). Always a hard authentication failure, never a
	// recoverable default.
	ErrDecryptFailed = errors.Wrap(errors.ErrUnauthorized, "decrypt failed")

	// ErrInvalidCredential indicates a stored credential is missing its hash
	// or salt material.
	ErrInvalidCredential = errors.Wrap(errors.ErrInvalidInput, "credential hash and salt are required")
)
