// Package domain defines the cryptographic value objects shared by the
// credential, access key, and token modules.
package domain

// Credential holds the salted hash that represents a password or access key
// secret. It is replaced wholesale on every password change and must never be
// logged or serialized outward.
type Credential struct {
	Hash []byte
	Salt []byte
}

// IsZero reports whether the credential carries no material.
func (c Credential) IsZero() bool {
	return len(c.Hash) == 0 && len(c.Salt) == 0
}
