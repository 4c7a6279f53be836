package clipfetch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDownloader struct {
	calls atomic.Int32
	delay time.Duration
	err   error
}

func (d *fakeDownloader) Download(_ context.Context, _, _, destDir, baseName string) (string, error) {
	d.calls.Add(1)
	if d.delay > 0 {
		time.Sleep(d.delay)
	}
	if d.err != nil {
		return "", d.err
	}
	path := filepath.Join(destDir, baseName+".mp4")
	if err := os.WriteFile(path, []byte("video bytes"), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func fetchRequest() FetchRequest {
	return FetchRequest{
		URL:          "https://x.com/u/status/42",
		ContentID:    "42",
		QualityLabel: "720p",
		FormatID:     "http-720",
	}
}

func TestObtainTwiceDownloadsOnce(t *testing.T) {
	assert := assert.New(t)
	root := t.TempDir()
	downloader := &fakeDownloader{}
	fetcher := NewFetcher(downloader, root)

	path, err := fetcher.Obtain(context.Background(), fetchRequest())
	require.NoError(t, err)
	assert.Equal(CachePath(root, CacheKey("42", "720p")), path)
	assert.FileExists(path)

	again, err := fetcher.Obtain(context.Background(), fetchRequest())
	require.NoError(t, err)
	assert.Equal(path, again)
	assert.Equal(int32(1), downloader.calls.Load())
}

func TestObtainFailureLeavesNoCacheEntry(t *testing.T) {
	assert := assert.New(t)
	root := t.TempDir()
	downloader := &fakeDownloader{err: errors.New("network down")}
	fetcher := NewFetcher(downloader, root)

	_, err := fetcher.Obtain(context.Background(), fetchRequest())
	assert.True(errors.Is(err, ErrDownloadFailed))
	assert.NoFileExists(CachePath(root, CacheKey("42", "720p")))

	// No staging debris left under the cache root either.
	entries, readErr := os.ReadDir(root)
	require.NoError(t, readErr)
	assert.Empty(entries)
}

func TestObtainCoalescesConcurrentRequests(t *testing.T) {
	assert := assert.New(t)
	root := t.TempDir()
	downloader := &fakeDownloader{delay: 50 * time.Millisecond}
	fetcher := NewFetcher(downloader, root)

	const workers = 8
	paths := make([]string, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			paths[i], errs[i] = fetcher.Obtain(context.Background(), fetchRequest())
		}(i)
	}
	wg.Wait()

	expected := CachePath(root, CacheKey("42", "720p"))
	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(expected, paths[i])
	}
	assert.Equal(int32(1), downloader.calls.Load())
}

func TestObtainDifferentQualitiesDownloadSeparately(t *testing.T) {
	assert := assert.New(t)
	root := t.TempDir()
	downloader := &fakeDownloader{}
	fetcher := NewFetcher(downloader, root)

	req720 := fetchRequest()
	req480 := fetchRequest()
	req480.QualityLabel, req480.FormatID = "480p", "http-480"

	path720, err := fetcher.Obtain(context.Background(), req720)
	require.NoError(t, err)
	path480, err := fetcher.Obtain(context.Background(), req480)
	require.NoError(t, err)

	assert.NotEqual(path720, path480)
	assert.Equal(int32(2), downloader.calls.Load())
}
