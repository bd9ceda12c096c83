package service

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/identity/internal/crypto/domain"
)

func TestHasher_SaltAndHash(t *testing.T) {
	hasher := NewHasher()

	t.Run("ReturnsHashAndSalt", func(t *testing.T) {
		cred, err := hasher.SaltAndHash("correct horse battery staple")
		require.NoError(t, err)
		assert.Len(t, cred.Salt, hashSaltSize)
		assert.Len(t, cred.Hash, hashKeySize)
	})

	t.Run("SaltsAreNeverReused", func(t *testing.T) {
		// Freshness is a property of the salt generator, so skip the key
		// derivation and sample the generator directly.
		seen := make(map[string]struct{}, 10000)
		for i := 0; i < 10000; i++ {
			salt, err := newSalt()
			require.NoError(t, err)
			key := hex.EncodeToString(salt)
			_, dup := seen[key]
			require.False(t, dup, "salt reused across calls")
			seen[key] = struct{}{}
		}
	})

	t.Run("SamePasswordDifferentSaltsDifferentHashes", func(t *testing.T) {
		first, err := hasher.SaltAndHash("password")
		require.NoError(t, err)
		second, err := hasher.SaltAndHash("password")
		require.NoError(t, err)
		assert.NotEqual(t, first.Hash, second.Hash)
	})
}

func TestHasher_Hash(t *testing.T) {
	hasher := NewHasher()

	t.Run("DeterministicWithSameSalt", func(t *testing.T) {
		salt := []byte("0123456789abcdef")
		first, err := hasher.Hash("password", salt)
		require.NoError(t, err)
		second, err := hasher.Hash("password", salt)
		require.NoError(t, err)
		assert.Equal(t, first.Hash, second.Hash)
	})

	t.Run("EmptySaltFails", func(t *testing.T) {
		_, err := hasher.Hash("password", nil)
		assert.ErrorIs(t, err, cryptoDomain.ErrInvalidCredential)
	})
}

func TestHasher_Verify(t *testing.T) {
	hasher := NewHasher()

	t.Run("RoundTrip", func(t *testing.T) {
		cred, err := hasher.SaltAndHash("s3cret!")
		require.NoError(t, err)

		ok, err := hasher.Verify("s3cret!", cred)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("WrongPasswordIsFalseNotError", func(t *testing.T) {
		cred, err := hasher.SaltAndHash("s3cret!")
		require.NoError(t, err)

		ok, err := hasher.Verify("not-the-password", cred)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("MissingHashFails", func(t *testing.T) {
		_, err := hasher.Verify("s3cret!", cryptoDomain.Credential{Salt: []byte("salt")})
		assert.ErrorIs(t, err, cryptoDomain.ErrInvalidCredential)
	})

	t.Run("MissingSaltFails", func(t *testing.T) {
		_, err := hasher.Verify("s3cret!", cryptoDomain.Credential{Hash: []byte("hash")})
		assert.ErrorIs(t, err, cryptoDomain.ErrInvalidCredential)
	})
}
