// Package cache keeps raw rate-feed payloads so a refresh can fall back to
// the last good response when the feed is down.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache stores byte payloads with a TTL. A zero TTL uses the store default.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives a stable cache key for a feed URL
func Key(feedURL string) string {
	hash := sha256.Sum256([]byte(feedURL))
	return "wayfare:v1:" + hex.EncodeToString(hash[:16])
}
