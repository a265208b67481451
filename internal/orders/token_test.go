package orders

import (
	"encoding/base64"
	"testing"
)

func TestNewPublicToken(t *testing.T) {
	token, err := newPublicToken()
	if err != nil {
		t.Fatalf("newPublicToken error: %v", err)
	}

	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		t.Fatalf("token is not base64url: %v", err)
	}
	if len(raw) != 32 {
		t.Errorf("token entropy = %d bytes, want 32", len(raw))
	}
}

func TestNewPublicTokenUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		token, err := newPublicToken()
		if err != nil {
			t.Fatalf("newPublicToken error: %v", err)
		}
		if seen[token] {
			t.Fatalf("duplicate token after %d draws", i)
		}
		seen[token] = true
	}
}
