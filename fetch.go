package clipfetch

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Downloader is the byte-transfer half of the external engine boundary: fetch
// the encoding identified by formatID into destDir under baseName, returning
// the path of whatever file it produced.
type Downloader interface {
	Download(ctx context.Context, url, formatID, destDir, baseName string) (string, error)
}

// FetchRequest identifies one (content, quality) pair to obtain.
type FetchRequest struct {
	URL          string
	ContentID    string
	QualityLabel string
	FormatID     string
}

// Fetcher coordinates cache lookup, download and atomic promotion. Concurrent
// misses on the same cache key are coalesced so at most one download is in
// flight per key.
type Fetcher struct {
	downloader Downloader
	cacheRoot  string
	group      singleflight.Group
	log        *zap.SugaredLogger
}

func NewFetcher(downloader Downloader, cacheRoot string) *Fetcher {
	return &Fetcher{
		downloader: downloader,
		cacheRoot:  cacheRoot,
		log:        zap.S().Named("fetcher"),
	}
}

// Obtain returns a servable file path for the request. A cache hit returns
// immediately with no network access; a miss downloads, promotes and returns
// the canonical cache path. A failed download never leaves a partial file at
// the canonical path.
func (f *Fetcher) Obtain(ctx context.Context, req FetchRequest) (string, error) {
	key := CacheKey(req.ContentID, req.QualityLabel)
	if path, ok := Lookup(f.cacheRoot, key); ok {
		f.log.Debugw("cache hit", "key", key, "content_id", req.ContentID, "quality", req.QualityLabel)
		return path, nil
	}
	v, err, shared := f.group.Do(key, func() (interface{}, error) {
		return f.populate(ctx, key, req)
	})
	if err != nil {
		return "", err
	}
	if shared {
		f.log.Debugw("download shared with concurrent request", "key", key)
	}
	return v.(string), nil
}

func (f *Fetcher) populate(ctx context.Context, key string, req FetchRequest) (string, error) {
	// Another request may have populated the key while we waited on the group.
	if path, ok := Lookup(f.cacheRoot, key); ok {
		return path, nil
	}
	if err := os.MkdirAll(f.cacheRoot, 0o755); err != nil {
		return "", fmt.Errorf("failed to create cache root: %w", err)
	}
	// Keep the staging directory under the cache root so the final rename
	// stays on one filesystem.
	tempDir, err := os.MkdirTemp(f.cacheRoot, "dl-*")
	if err != nil {
		return "", fmt.Errorf("failed to create staging dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	url := Normalize(req.URL)
	f.log.Infow("cache miss, downloading",
		"key", key,
		"content_id", req.ContentID,
		"quality", req.QualityLabel,
		"format_id", req.FormatID,
	)
	produced, err := f.downloader.Download(ctx, url, req.FormatID, tempDir, key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	path, err := Promote(f.cacheRoot, key, produced)
	if err != nil {
		return "", err
	}
	f.log.Infow("promoted download into cache", "key", key, "path", path)
	return path, nil
}
