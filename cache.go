package clipfetch

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

// cacheKeyLength is how many hex characters of the digest make up a key.
const cacheKeyLength = 32

// CacheKey derives the cache identity for a (content, quality) pair: a
// truncated digest of "<content_id>:<quality_label>". It deliberately ignores
// the source URL, so different URLs resolving to the same content share one
// cache entry.
func CacheKey(contentID, qualityLabel string) string {
	sum := sha256.Sum256([]byte(contentID + ":" + qualityLabel))
	return hex.EncodeToString(sum[:])[:cacheKeyLength]
}

// CachePath maps a cache key to its canonical file path under root.
func CachePath(root, key string) string {
	return filepath.Join(root, key+".mp4")
}

// Lookup reports whether a complete cache entry exists for key. Existence of
// the path is the sole source of truth; the write path guarantees no partial
// file is ever visible there.
func Lookup(root, key string) (string, bool) {
	path := CachePath(root, key)
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}

// Promote installs sourceFile at the canonical path for key. A stale occupant
// is removed first, then the source is moved into place with a single rename,
// so concurrent Lookup callers observe either "absent" or a complete file. If
// sourceFile already is the canonical path this is a no-op.
func Promote(root, key, sourceFile string) (string, error) {
	target := CachePath(root, key)
	if sourceFile == target {
		return target, nil
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return "", fmt.Errorf("failed to create cache root: %w", err)
	}
	if _, err := os.Stat(target); err == nil {
		if err := os.Remove(target); err != nil {
			return "", fmt.Errorf("failed to remove stale cache entry: %w", err)
		}
	}
	if err := os.Rename(sourceFile, target); err != nil {
		return "", fmt.Errorf("failed to promote download into cache: %w", err)
	}
	return target, nil
}
