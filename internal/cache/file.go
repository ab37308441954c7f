package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileStore keeps one entry in a JSON file under the cache directory.
type FileStore struct {
	path string
	ttl  time.Duration
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a FileStore with the default 5-minute TTL.
// dir is the cache directory (typically from DefaultDir).
func NewFileStore(dir string, scope Scope) *FileStore {
	return NewFileStoreWithTTL(dir, scope, DefaultTTL)
}

// NewFileStoreWithTTL creates a FileStore with a custom TTL.
func NewFileStoreWithTTL(dir string, scope Scope, ttl time.Duration) *FileStore {
	filename := fmt.Sprintf("%s_%s.json", sanitizeKey(scope.Key), scope.suffix())
	return &FileStore{
		path: filepath.Join(dir, filename),
		ttl:  ttl,
	}
}

// Path returns the backing file.
func (s *FileStore) Path() string {
	return s.path
}

// Get loads cached items into dst. Returns false on miss (no file, expired, disabled).
func (s *FileStore) Get(_ context.Context, dst any) bool {
	if disabled() {
		return false
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return false
	}
	return decodeEntry(data, s.ttl, dst)
}

// Put writes items to the cache. Silently no-ops on error or when disabled.
func (s *FileStore) Put(_ context.Context, items any) {
	if disabled() {
		return
	}
	data, ok := encodeEntry(items)
	if !ok {
		return
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return
	}

	// Atomic-ish write: write temp then rename.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		_ = os.Remove(tmp)
		return
	}
	_ = os.Rename(tmp, s.path)
}

// Clear removes this cache file.
func (s *FileStore) Clear(context.Context) {
	_ = os.Remove(s.path)
}

// ClearAll removes all cache files from the directory and returns how many
// were removed. Only files matching the cache filename scheme are touched.
func ClearAll(dir string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	removed := 0
	for _, e := range entries {
		if e.IsDir() || !isCacheFilename(e.Name()) {
			continue
		}
		if os.Remove(filepath.Join(dir, e.Name())) == nil {
			removed++
		}
	}
	return removed
}

// DefaultDir returns the platform-appropriate cache directory.
// Returns "$XDG_CACHE_HOME/oai" or equivalent.
func DefaultDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "oai"), nil
}

func isCacheFilename(name string) bool {
	// Expected: "<key>_<12hex>.json"
	if filepath.Ext(name) != ".json" {
		return false
	}
	key, suffix, ok := strings.Cut(strings.TrimSuffix(name, ".json"), "_")
	if !ok || key == "" {
		return false
	}
	return len(suffix) == 12 && isHex(suffix)
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
