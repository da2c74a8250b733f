// Package cache persists per-file trace results between runs. Entries are
// content-addressed: the key folds the file bytes together with the payload
// schema and the tool version, so bumping either invalidates every entry
// without touching the directory.
package cache

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ulikunitz/xz"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/zeebo/blake3"

	"reqtrace/internal/srctrace"
)

// ErrCacheMiss reports that no usable entry exists for the key. Corrupt and
// versioned-out entries read as misses, never as failures.
var ErrCacheMiss = errors.New("cache: entry not found")

// Key addresses one cache entry.
type Key [32]byte

// KeyFor derives the entry key for a source file's content under the given
// tool version.
func KeyFor(content []byte, toolVersion string) Key {
	h := blake3.New()
	_, _ = h.Write(content)
	_, _ = fmt.Fprintf(h, "\x00schema=%d\x00tool=%s", payloadSchema, toolVersion)
	var k Key
	copy(k[:], h.Sum(nil))
	return k
}

// Cache is a disk store of trace results. A nil *Cache is valid and behaves
// as an always-empty cache, so callers can disable caching without branching.
// Safe for concurrent use.
type Cache struct {
	mu  sync.RWMutex
	dir string
}

// Open initializes the cache at the standard per-user location:
// $XDG_CACHE_HOME/reqtrace, falling back to the OS cache directory.
func Open() (*Cache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		var err error
		base, err = os.UserCacheDir()
		if err != nil {
			return nil, err
		}
	}
	return OpenAt(filepath.Join(base, "reqtrace"))
}

// OpenAt initializes the cache in an explicit directory.
func OpenAt(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir}, nil
}

// Dir returns the cache root.
func (c *Cache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

func (c *Cache) pathFor(key Key) string {
	return filepath.Join(c.dir, "trace", hex.EncodeToString(key[:])+".mpx")
}

// Put serializes the trace info under key. The write is atomic: the entry
// lands under a temp name and is renamed into place.
func (c *Cache) Put(key Key, info *srctrace.SourceFileTraceabilityInfo) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		_ = os.Remove(tmp) // no-op once the rename succeeded
	}()

	if err := writePayload(f, infoToPayload(info)); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, p)
}

// Get loads the trace info stored under key. Missing, corrupt, or
// schema-mismatched entries return ErrCacheMiss.
func (c *Cache) Get(key Key) (*srctrace.SourceFileTraceabilityInfo, error) {
	if c == nil {
		return nil, ErrCacheMiss
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()

	p, err := readPayload(f)
	if err != nil {
		return nil, ErrCacheMiss
	}
	return payloadToInfo(p), nil
}

// Clear drops every entry. The directory is renamed aside first so a
// concurrent reader never observes a half-deleted tree.
func (c *Cache) Clear() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := os.RemoveAll(old); err != nil {
		return err
	}
	return os.MkdirAll(c.dir, 0o755)
}

func writePayload(w io.Writer, p *payload) error {
	zw, err := xz.NewWriter(w)
	if err != nil {
		return err
	}
	if err := msgpack.NewEncoder(zw).Encode(p); err != nil {
		return err
	}
	return zw.Close()
}

func readPayload(r io.Reader) (*payload, error) {
	zr, err := xz.NewReader(r)
	if err != nil {
		return nil, err
	}
	var p payload
	if err := msgpack.NewDecoder(zr).Decode(&p); err != nil {
		return nil, err
	}
	if p.Schema != payloadSchema {
		return nil, fmt.Errorf("cache: payload schema %d, want %d", p.Schema, payloadSchema)
	}
	return &p, nil
}
