package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// RandomToken returns a hex-encoded string built from n bytes of
// cryptographically secure randomness. Used for public-link capability
// tokens, so n should be at least 32.
func RandomToken(n int) string {
	bytes := make([]byte, n)
	if _, err := rand.Read(bytes); err != nil {
		panic(err)
	}
	return hex.EncodeToString(bytes)
}
