package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash returns the full hex SHA-256 of data. Cache backends use it to turn
// arbitrary hrefs into fixed-size, filesystem-safe keys.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// DocumentKey builds the cache key for a fetched document href.
func DocumentKey(href string) string {
	return "doc:" + Hash([]byte(href))
}
