package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

const keyPrefix = "bioverify:v1:"

func hashKey(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0}) // separator so ("ab","c") != ("a","bc")
	}
	return keyPrefix + hex.EncodeToString(h.Sum(nil))
}

// PageKey generates a cache key for a fetched page body
func PageKey(url string) string {
	return hashKey("page", url)
}

// EmbeddingKey generates a cache key for a text embedding under a model
func EmbeddingKey(model, text string) string {
	return hashKey("embed", model, text)
}

// ExtractionKey generates a cache key for an extraction result. The key
// covers the model, the subject and the chunk text so a change to any of
// them misses.
func ExtractionKey(model, person, chunkText string) string {
	return hashKey("extract", model, person, chunkText)
}
