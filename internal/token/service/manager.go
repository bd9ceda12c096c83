// Package service implements session token generation and validation.
package service

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/golang-jwt/jwt/v5"

	cryptoDomain "github.com/allisson/identity/internal/crypto/domain"
	cryptoService "github.com/allisson/identity/internal/crypto/service"
	apperrors "github.com/allisson/identity/internal/errors"
	tokenDomain "github.com/allisson/identity/internal/token/domain"
)

// SecretSize is the required process secret length in bytes. The same secret
// keys both the HS256 signature and the AES-256-GCM payload encryption.
const SecretSize = 32

// Manager defines the interface for minting and validating session tokens.
type Manager interface {
	// Generate encrypts the payload under the process secret and wraps the
	// ciphertext in a signed envelope expiring after duration.
	Generate(payload map[string]any, duration time.Duration) (string, error)

	// Validate verifies the signature, checks expiry, decrypts and parses the
	// payload. Expired tokens fail with ErrTokenExpired; every other failure
	// is ErrTokenInvalid.
	Validate(token string) (*tokenDomain.ValidatedToken, error)
}

// sessionClaims is the signed envelope. The signed data claim is the
// ciphertext, not the plaintext, so the payload stays hidden even from
// holders who can check the signature.
type sessionClaims struct {
	jwt.RegisteredClaims
	Data string `json:"data"`
}

// tokenManager implements Manager using HS256 JWTs over AES-GCM ciphertext.
type tokenManager struct {
	secret []byte
	cipher cryptoService.AEAD
}

// NewManager creates a token manager keyed by the process-wide secret.
// The secret must be exactly 32 bytes; the constructor fails fast with
// ErrSecretRequired or ErrWeakSecret otherwise, and the process should
// refuse to start.
func NewManager(secret []byte) (Manager, error) {
	if len(secret) == 0 {
		return nil, cryptoDomain.ErrSecretRequired
	}
	if len(secret) != SecretSize {
		return nil, cryptoDomain.ErrWeakSecret
	}

	cipher, err := cryptoService.NewAESGCM(secret)
	if err != nil {
		return nil, err
	}

	return &tokenManager{secret: secret, cipher: cipher}, nil
}

// Generate encrypts the JSON-encoded payload and signs an envelope holding
// the base64 of nonce||ciphertext plus the expiry timestamp.
func (t *tokenManager) Generate(payload map[string]any, duration time.Duration) (string, error) {
	plaintext, err := json.Marshal(payload)
	if err != nil {
		return "", apperrors.Wrap(err, "failed to encode token payload")
	}
	defer cryptoDomain.Zero(plaintext)

	ciphertext, nonce, err := t.cipher.Encrypt(plaintext, nil)
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
		},
		Data: base64.RawURLEncoding.EncodeToString(append(nonce, ciphertext...)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", apperrors.Wrap(err, "failed to sign token")
	}
	return signed, nil
}

// Validate verifies and decrypts a session token. Only the expired case is
// distinguishable; a caller holding a stale session must be able to tell it
// from a forged one, but nothing else is leaked about which stage failed.
func (t *tokenManager) Validate(token string) (*tokenDomain.ValidatedToken, error) {
	claims := &sessionClaims{}

	parsed, err := jwt.ParseWithClaims(
		token,
		claims,
		func(*jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if apperrors.Is(err, jwt.ErrTokenExpired) {
			return nil, tokenDomain.ErrTokenExpired
		}
		return nil, tokenDomain.ErrTokenInvalid
	}
	if !parsed.Valid {
		return nil, tokenDomain.ErrTokenInvalid
	}
	// The parser only validates claims that are present, so a signed token
	// stripped of its timestamps would otherwise slip past expiry checks.
	if claims.IssuedAt == nil || claims.ExpiresAt == nil {
		return nil, tokenDomain.ErrTokenInvalid
	}

	blob, err := base64.RawURLEncoding.DecodeString(claims.Data)
	if err != nil || len(blob) <= t.cipher.NonceSize() {
		return nil, tokenDomain.ErrTokenInvalid
	}

	nonce, ciphertext := blob[:t.cipher.NonceSize()], blob[t.cipher.NonceSize():]
	plaintext, err := t.cipher.Decrypt(ciphertext, nonce, nil)
	if err != nil {
		return nil, tokenDomain.ErrTokenInvalid
	}
	defer cryptoDomain.Zero(plaintext)

	var data map[string]any
	if err := json.Unmarshal(plaintext, &data); err != nil {
		return nil, tokenDomain.ErrTokenInvalid
	}

	return &tokenDomain.ValidatedToken{
		Data:      data,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
