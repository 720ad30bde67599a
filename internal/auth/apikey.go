package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// APIKeyPrefix marks keys issued by this service.
const APIKeyPrefix = "pc_"

// GenerateAPIKey returns a new random API key.
func GenerateAPIKey() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generating API key: %w", err)
	}
	return APIKeyPrefix + hex.EncodeToString(bytes), nil
}

// HashAPIKey returns the hex SHA-256 digest stored in place of the key.
func HashAPIKey(key string) string {
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:])
}

// KeyPrefix returns the displayable prefix of a key.
func KeyPrefix(key string) string {
	if len(key) < 8 {
		return key
	}
	return key[:8]
}

// ConstantTimeCompare performs a constant-time string comparison.
func ConstantTimeCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
