// Package cache is the artifact cache: caption and resolution reports keyed
// by a checksum of their story inputs, so re-running a batch skips stories
// whose inputs have not changed.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache is the storage interface shared by the memory, disk, and layered
// implementations
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives a cache key from the inputs that determine a story's output:
// typically the transcript plus the serialized alignment or candidate data.
func Key(parts ...[]byte) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
	}
	return "tessera:v1:" + hex.EncodeToString(h.Sum(nil))
}
