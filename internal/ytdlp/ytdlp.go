// Package ytdlp adapts the yt-dlp binary as the external extraction and
// download engine. The binary is a black box: one invocation to discover
// metadata for a URL, one to download a specific format.
package ytdlp

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/clipfetch/clipfetch"
)

const (
	DefaultTimeout = 5 * time.Minute
	DefaultRetries = 3
)

// Extensions the download step may produce, in the order we look for them.
var producedExtensions = []string{".mp4", ".webm", ".mkv"}

type runFunc func(ctx context.Context, name string, args ...string) ([]byte, string, error)

// Client invokes yt-dlp with a bounded timeout and retry count. It implements
// both clipfetch.Extractor and clipfetch.Downloader.
type Client struct {
	path    string
	timeout time.Duration
	retries int
	log     *zap.SugaredLogger
	run     runFunc
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithRetries(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.retries = n
		}
	}
}

func New(path string, opts ...Option) *Client {
	if path == "" {
		path = "yt-dlp"
	}
	c := &Client{
		path:    path,
		timeout: DefaultTimeout,
		retries: DefaultRetries,
		log:     zap.S().Named("ytdlp"),
		run:     runCommand,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Probe asks the engine for metadata about a URL without downloading anything.
func (c *Client) Probe(ctx context.Context, url string) (*clipfetch.RawInfo, error) {
	args := []string{
		"--dump-single-json",
		"--no-warnings",
		"--skip-download",
		url,
	}
	out, err := c.runRetry(ctx, args)
	if err != nil {
		return nil, err
	}
	return parseInfo(out)
}

// Download fetches the encoding identified by formatID into destDir under
// baseName and returns the path of the produced file.
func (c *Client) Download(ctx context.Context, url, formatID, destDir, baseName string) (string, error) {
	args := []string{
		"-f", formatID,
		"-o", filepath.Join(destDir, baseName+".%(ext)s"),
		"--quiet",
		"--no-warnings",
		"--merge-output-format", "mp4",
		"--recode-video", "mp4",
		url,
	}
	if _, err := c.runRetry(ctx, args); err != nil {
		return "", err
	}
	return findProduced(destDir, baseName)
}

// runRetry runs the engine up to the configured retry count, accumulating the
// per-attempt failures. A cancelled context stops further attempts.
func (c *Client) runRetry(ctx context.Context, args []string) ([]byte, error) {
	var result error
	for attempt := 1; attempt <= c.retries; attempt++ {
		runCtx, cancel := context.WithTimeout(ctx, c.timeout)
		out, stderr, err := c.run(runCtx, c.path, args...)
		cancel()
		if err == nil {
			return out, nil
		}
		if stderr != "" {
			err = fmt.Errorf("%w: %s", err, stderr)
		}
		c.log.Warnw("engine invocation failed", "attempt", attempt, "error", err)
		result = multierror.Append(result, fmt.Errorf("attempt %d: %w", attempt, err))
		if ctx.Err() != nil {
			break
		}
	}
	return nil, result
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout bytes.Buffer
	var stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), strings.TrimSpace(stderr.String()), err
}

// findProduced locates the file the engine wrote. The recode step should give
// us baseName.mp4, but a failed recode can leave the original container.
func findProduced(destDir, baseName string) (string, error) {
	for _, ext := range producedExtensions {
		candidate := filepath.Join(destDir, baseName+ext)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	entries, err := os.ReadDir(destDir)
	if err != nil {
		return "", fmt.Errorf("failed to read download dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		for _, ext := range producedExtensions {
			if strings.HasSuffix(e.Name(), ext) {
				return filepath.Join(destDir, e.Name()), nil
			}
		}
	}
	return "", fmt.Errorf("download produced no media file in %s", destDir)
}
