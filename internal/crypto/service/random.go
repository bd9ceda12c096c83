package service

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"

	apperrors "github.com/allisson/identity/internal/errors"
)

// RandomHex returns the hex encoding of n cryptographically random bytes.
func RandomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", apperrors.Wrap(err, "failed to read random bytes")
	}
	return hex.EncodeToString(buf), nil
}

// NumericCode returns a string of the given number of cryptographically
// random decimal digits, leading zeros included. Used for single-use,
// time-boxed codes like password reset tokens and generated initial
// passwords.
func NumericCode(digits int) (string, error) {
	out := make([]byte, digits)
	for i := range out {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", apperrors.Wrap(err, "failed to read random digit")
		}
		out[i] = byte('0' + n.Int64())
	}
	return string(out), nil
}
