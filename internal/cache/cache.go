// Package cache stores short-lived API listings (such as the models list)
// so repeated CLI invocations skip the round trip.
//
// Entries are JSON, scoped per resource key, base URL and profile. Default
// TTL is 5 minutes. Disable with OAI_NO_CACHE=1. When OAI_CACHE_REDIS_URL is
// set, entries live in Redis instead of the cache directory.
package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"os"
	"strings"
	"time"
)

const DefaultTTL = 5 * time.Minute

const (
	envNoCache  = "OAI_NO_CACHE"
	envRedisURL = "OAI_CACHE_REDIS_URL"
)

// Store reads and writes a single cache entry (resource+server+profile).
// Failures are misses; a cache never fails the command using it.
type Store interface {
	Get(ctx context.Context, dst any) bool
	Put(ctx context.Context, items any)
	Clear(ctx context.Context)
}

type entry struct {
	CachedAt time.Time       `json:"cached_at"`
	Items    json.RawMessage `json:"items"`
}

// Scope identifies one cache entry.
type Scope struct {
	Key     string
	BaseURL string
	Profile string
}

// suffix is the short hash shared by the file name and the Redis key.
func (s Scope) suffix() string {
	hash := sha1.Sum([]byte(s.BaseURL + "\x00" + s.Profile))
	return hex.EncodeToString(hash[:6])
}

// Open returns the store configured by the environment: Redis when
// OAI_CACHE_REDIS_URL is set, otherwise a file in dir.
func Open(dir string, scope Scope, ttl time.Duration) (Store, error) {
	if url := RedisURL(); url != "" {
		return NewRedisStoreFromURL(url, scope, ttl)
	}
	return NewFileStoreWithTTL(dir, scope, ttl), nil
}

// RedisURL returns the configured Redis URL, if any.
func RedisURL() string {
	return strings.TrimSpace(os.Getenv(envRedisURL))
}

func disabled() bool {
	return os.Getenv(envNoCache) != ""
}

func encodeEntry(items any) ([]byte, bool) {
	raw, err := json.Marshal(items)
	if err != nil {
		return nil, false
	}
	data, err := json.Marshal(entry{CachedAt: time.Now(), Items: raw})
	if err != nil {
		return nil, false
	}
	return data, true
}

func decodeEntry(data []byte, ttl time.Duration, dst any) bool {
	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return false
	}
	if time.Since(e.CachedAt) > ttl {
		return false
	}
	return json.Unmarshal(e.Items, dst) == nil
}

func sanitizeKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return "cache"
	}
	key = strings.ReplaceAll(key, "/", "-")
	key = strings.ReplaceAll(key, "\\", "-")
	key = strings.ReplaceAll(key, "_", "-")
	return key
}
