package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/bisa-app/factcheck/internal/model"
)

// Cache stores AI backend replies keyed by request fingerprint
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// ReplyKey fingerprints an AI verification request. The same content checked
// against the same model maps to the same key.
func ReplyKey(modelName, content string) string {
	hash := sha256.Sum256([]byte(modelName + "\x00" + content))
	return "factcheck:v1:" + hex.EncodeToString(hash[:])
}

// New builds the cache described by cfg, or nil when caching is disabled.
// Without a directory only the memory layer is used.
func New(cfg model.CacheConfig) Cache {
	if !cfg.Enabled {
		return nil
	}
	if cfg.Dir == "" {
		return NewMemoryCache(cfg.MemoryTTL, 10*time.Minute)
	}
	return NewLayeredCache(cfg.MemoryTTL, cfg.Dir, cfg.DiskTTL)
}
