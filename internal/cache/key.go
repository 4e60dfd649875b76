package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Key returns the cache key for a request payload: the SHA-256 of its JSON
// form with object keys sorted, so field order never changes the key.
func Key(payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode payload: %w", err)
	}

	var canonical any
	if err := json.Unmarshal(data, &canonical); err != nil {
		return "", fmt.Errorf("failed to decode payload: %w", err)
	}

	// Maps marshal with sorted keys.
	sorted, err := json.Marshal(canonical)
	if err != nil {
		return "", fmt.Errorf("failed to encode payload: %w", err)
	}
	return hashBytes(sorted), nil
}

// hashBytes returns the lowercase hex SHA-256 of data.
func hashBytes(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
