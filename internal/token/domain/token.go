// Package domain defines session token models and errors.
//
// A session token is a stateless, short-lived artifact: an HS256-signed JWT
// whose data claim is the AES-GCM ciphertext of the payload. It is never
// persisted and carries no revocation state; it is valid until its expiry and
// invalid in every other case.
package domain

import (
	"time"
)

// ValidatedToken is the result of validating a session token: the decrypted
// payload plus the signed envelope timestamps.
type ValidatedToken struct {
	Data      map[string]any
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Payload keys placed in every token minted on behalf of a user: the owner's
// id and display name.
const (
	PayloadUserID = "user_id"
	PayloadName   = "name"
)
