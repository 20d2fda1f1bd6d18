package security

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const tokenBytes = 32

// RandomTokenGenerator produces opaque hex tokens with 256 bits of entropy.
type RandomTokenGenerator struct{}

// Generate returns a new random token.
func (RandomTokenGenerator) Generate() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}
