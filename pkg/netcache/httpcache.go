// Package netcache keeps local copies of tag library scripts served over
// HTTP, revalidating them with ETag/Last-Modified on every fetch.
package netcache

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"
)

// ErrNotFound is returned when the server answers 404 or 410, so callers
// can move on to another source.
var ErrNotFound = errors.New("not found")

// maxBody bounds the size of a cached script.
const maxBody = 8 << 20

// Cache provides a simple persistent HTTP cache with ETag/Last-Modified support.
type Cache struct {
	Dir    string
	Client *http.Client
	// Retries is the number of extra attempts after a network error or 5xx.
	Retries int
	// Backoff is the delay before the first retry; it doubles each time.
	Backoff time.Duration
}

// New returns a new Cache with a reasonable default HTTP client.
func New(dir string) *Cache {
	return &Cache{
		Dir:     dir,
		Client:  &http.Client{Timeout: 30 * time.Second},
		Retries: 2,
		Backoff: time.Second,
	}
}

type meta struct {
	URL          string `json:"url"`
	ETag         string `json:"etag,omitempty"`
	LastModified string `json:"last_modified,omitempty"`
	// DataFile is the basename of the cached payload file
	DataFile string `json:"data_file"`
	// Digest is the blake3 sum of the payload, checked on every reuse.
	Digest string `json:"digest"`
}

// Fetch returns the body of url, reusing the cached copy when the server
// reports it unchanged or cannot be reached. The bool result reports whether
// the cached copy was used.
func (c *Cache) Fetch(ctx context.Context, url string) ([]byte, bool, error) {
	key := hash(url)
	mpath := filepath.Join(c.Dir, key+".json")
	m, haveMeta := c.readMeta(mpath, url)

	var lastErr error
	for attempt := 0; attempt <= c.Retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, false, ctx.Err()
			case <-time.After(c.Backoff << (attempt - 1)):
			}
		}
		body, cached, err := c.fetchOnce(ctx, url, key, mpath, m, haveMeta)
		if err == nil {
			return body, cached, nil
		}
		if errors.Is(err, ErrNotFound) || !retryable(err) {
			return nil, false, err
		}
		lastErr = err
		slog.Debug("fetch failed", "url", url, "attempt", attempt+1, "error", err)
	}

	// Reuse the cached file best-effort if the server stayed unreachable.
	if haveMeta {
		if b, err := c.readData(m); err == nil {
			slog.Warn("using stale cached copy", "url", url, "error", lastErr)
			return b, true, nil
		}
	}
	return nil, false, lastErr
}

type statusError struct{ code int }

func (e statusError) Error() string { return fmt.Sprintf("HTTP %d", e.code) }

func retryable(err error) bool {
	var se statusError
	if errors.As(err, &se) {
		return se.code >= 500
	}
	return true
}

func (c *Cache) fetchOnce(ctx context.Context, url, key, mpath string, m meta, haveMeta bool) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, err
	}
	if haveMeta {
		if m.ETag != "" {
			req.Header.Set("If-None-Match", m.ETag)
		}
		if m.LastModified != "" {
			req.Header.Set("If-Modified-Since", m.LastModified)
		}
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified && haveMeta:
		b, err := c.readData(m)
		if err != nil {
			return nil, false, err
		}
		return b, true, nil
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, false, fmt.Errorf("%s: %w", url, ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, false, statusError{resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody+1))
	if err != nil {
		return nil, false, err
	}
	if len(body) > maxBody {
		return nil, false, fmt.Errorf("%s: response larger than %d bytes", url, maxBody)
	}
	dataFile := key + ".data"
	if err := writeFileAtomic(filepath.Join(c.Dir, dataFile), body); err != nil {
		return nil, false, err
	}
	nm := meta{
		URL:          url,
		ETag:         resp.Header.Get("ETag"),
		LastModified: resp.Header.Get("Last-Modified"),
		DataFile:     dataFile,
		Digest:       digest(body),
	}
	if err := writeMeta(mpath, nm); err != nil {
		return nil, false, err
	}
	return body, false, nil
}

func (c *Cache) readMeta(mpath, url string) (meta, bool) {
	var m meta
	b, err := os.ReadFile(mpath)
	if err != nil {
		return m, false
	}
	if err := json.Unmarshal(b, &m); err != nil {
		return m, false
	}
	if m.URL != url || m.DataFile == "" {
		return m, false
	}
	if _, err := c.readData(m); err != nil {
		slog.Debug("discarding cached copy", "url", url, "error", err)
		return m, false
	}
	return m, true
}

// readData returns the cached payload described by m, failing if it no
// longer matches the recorded digest.
func (c *Cache) readData(m meta) ([]byte, error) {
	b, err := os.ReadFile(filepath.Join(c.Dir, m.DataFile))
	if err != nil {
		return nil, err
	}
	if m.Digest != "" && digest(b) != m.Digest {
		return nil, fmt.Errorf("cached copy of %s is corrupt", m.URL)
	}
	return b, nil
}

func writeFileAtomic(dst string, b []byte) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	tmp := dst + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, dst)
}

func writeMeta(path string, m meta) error {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(path, b)
}

func hash(s string) string {
	return digest([]byte(s))
}

func digest(b []byte) string {
	h := blake3.New()
	h.Write(b)
	return hex.EncodeToString(h.Sum(nil))
}
