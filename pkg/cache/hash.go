package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash returns the hex SHA-256 of data. Registry URLs and usernames go
// through it before they reach a key or a file name.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// UserScope returns the key prefix isolating one feed user's entries.
// The username itself never appears in a key.
func UserScope(user string) string {
	return "user:" + Hash([]byte(user))[:16] + ":"
}

func indexKey(registryURL string) string {
	return "index:" + Hash([]byte(registryURL))
}
