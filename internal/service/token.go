package service

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// newConfirmationToken mints a single-use activation token: 32 bytes from a
// cryptographically strong source, hex-encoded. Collisions across the life of
// the store are negligible at this size.
func newConfirmationToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate confirmation token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
