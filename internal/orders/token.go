package orders

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// newPublicToken generates the opaque access credential for the public view.
// 32 random bytes, base64url without padding.
func newPublicToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate public token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
