package cache

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const diskSuffix = ".cache"

// DiskCache persists entries as files under dir. Keys made by CacheKey are
// grouped into one subdirectory per namespace. Each file holds the expiry
// time on its first line followed by the raw value.
type DiskCache struct {
	dir string
	ttl time.Duration
}

// NewDiskCache creates a new disk cache
func NewDiskCache(dir string, ttl time.Duration) *DiskCache {
	return &DiskCache{dir: dir, ttl: ttl}
}

// Get returns a live entry. Expired or unreadable entries are removed.
func (c *DiskCache) Get(key string) ([]byte, bool) {
	path := c.path(key)

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	header, value, ok := bytes.Cut(raw, []byte("\n"))
	if !ok {
		_ = os.Remove(path)
		return nil, false
	}
	expires, err := time.Parse(time.RFC3339Nano, string(header))
	if err != nil || time.Now().After(expires) {
		_ = os.Remove(path)
		return nil, false
	}

	return value, true
}

// Set stores value until ttl elapses; a zero ttl uses the cache default.
// Writes go through a temp file so readers never see a partial entry.
func (c *DiskCache) Set(key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.ttl
	}

	path := c.path(key)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "entry-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	header := time.Now().Add(ttl).UTC().Format(time.RFC3339Nano) + "\n"
	if _, err := tmp.WriteString(header); err == nil {
		_, err = tmp.Write(value)
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("write cache file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename cache file: %w", err)
	}
	return nil
}

// Delete removes an entry; a missing entry is not an error
func (c *DiskCache) Delete(key string) error {
	if err := os.Remove(c.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Clear removes every entry file under dir and leaves other files alone
func (c *DiskCache) Clear() error {
	err := filepath.WalkDir(c.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, diskSuffix) {
			return nil
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// path maps "healthlens:v1:<ns>:<hash>" to <dir>/<ns>/<hash>.cache. Other
// keys land in dir itself with ':' replaced, which is not portable in file names.
func (c *DiskCache) path(key string) string {
	if rest, ok := strings.CutPrefix(key, keyPrefix); ok {
		if ns, name, ok := strings.Cut(rest, ":"); ok {
			return filepath.Join(c.dir, ns, name+diskSuffix)
		}
	}
	return filepath.Join(c.dir, strings.ReplaceAll(key, ":", "_")+diskSuffix)
}
