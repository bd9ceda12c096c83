package domain

// Zero securely overwrites a byte slice with zeros to clear sensitive data
// from memory. Used for plaintext payloads and secrets after they are hashed
// or encrypted.
func Zero(b []byte) {
	if b == nil {
		return
	}
	for i := range b {
		b[i] = 0
	}
}
