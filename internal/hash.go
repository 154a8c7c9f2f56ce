package internal

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

// HashToken is the one-way, deterministic hash applied to every token before
// it touches storage. The same token always produces the same digest, so a
// hashed token can be used as a lookup key without the raw value ever being
// persisted.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// NewTemporarySecret returns a random URL-safe secret of the requested byte
// length, suitable for one-time credentials.
func NewTemporarySecret(size int) (string, error) {
	if size <= 0 {
		size = 32
	}
	raw := make([]byte, size)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
