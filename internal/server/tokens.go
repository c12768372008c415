package server

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/google/uuid"
)

// tokenBytes of entropy per candidate token; 32 bytes encode to 43 URL-safe characters.
const tokenBytes = 32

// generateToken returns a URL-safe random capability token.
func generateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// generateID returns the internal record key.
func generateID() string {
	return uuid.NewString()
}
