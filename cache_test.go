package clipfetch

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheKey(t *testing.T) {
	assert := assert.New(t)

	sum := sha256.Sum256([]byte("42:720p"))
	expected := hex.EncodeToString(sum[:])[:32]
	assert.Equal(expected, CacheKey("42", "720p"))
	assert.Len(CacheKey("42", "720p"), 32)

	// Deterministic, and sensitive to both inputs.
	assert.Equal(CacheKey("42", "720p"), CacheKey("42", "720p"))
	assert.NotEqual(CacheKey("42", "720p"), CacheKey("42", "1080p"))
	assert.NotEqual(CacheKey("42", "720p"), CacheKey("43", "720p"))
}

func TestCachePath(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(filepath.Join("/cache", "abc.mp4"), CachePath("/cache", "abc"))
}

func TestLookup(t *testing.T) {
	assert := assert.New(t)
	root := t.TempDir()

	_, ok := Lookup(root, "missing")
	assert.False(ok)

	key := CacheKey("42", "720p")
	require.NoError(t, os.WriteFile(CachePath(root, key), []byte("video"), 0o644))

	path, ok := Lookup(root, key)
	assert.True(ok)
	assert.Equal(CachePath(root, key), path)
}

func TestPromote(t *testing.T) {
	assert := assert.New(t)
	root := t.TempDir()
	key := CacheKey("42", "720p")

	staged := filepath.Join(t.TempDir(), "staged.mp4")
	require.NoError(t, os.WriteFile(staged, []byte("new"), 0o644))

	path, err := Promote(root, key, staged)
	require.NoError(t, err)
	assert.Equal(CachePath(root, key), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal("new", string(data))
	assert.NoFileExists(staged)
}

func TestPromoteReplacesStaleEntry(t *testing.T) {
	assert := assert.New(t)
	root := t.TempDir()
	key := CacheKey("42", "720p")

	require.NoError(t, os.WriteFile(CachePath(root, key), []byte("stale"), 0o644))

	staged := filepath.Join(t.TempDir(), "staged.mp4")
	require.NoError(t, os.WriteFile(staged, []byte("fresh"), 0o644))

	path, err := Promote(root, key, staged)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal("fresh", string(data))
}

func TestPromoteSamePathIsNoop(t *testing.T) {
	assert := assert.New(t)
	root := t.TempDir()
	key := CacheKey("42", "720p")
	target := CachePath(root, key)
	require.NoError(t, os.WriteFile(target, []byte("already here"), 0o644))

	path, err := Promote(root, key, target)
	require.NoError(t, err)
	assert.Equal(target, path)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal("already here", string(data))
}

func TestPromoteCreatesCacheRoot(t *testing.T) {
	assert := assert.New(t)
	root := filepath.Join(t.TempDir(), "nested", "cache")
	key := CacheKey("42", "720p")

	staged := filepath.Join(t.TempDir(), "staged.mp4")
	require.NoError(t, os.WriteFile(staged, []byte("x"), 0o644))

	path, err := Promote(root, key, staged)
	require.NoError(t, err)
	assert.FileExists(path)
}
