package services

import (
	"crypto/sha256"
	"encoding/hex"
)

// ContentHash is the cache key of an upload: lowercase hex SHA-256 of the raw bytes.
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
