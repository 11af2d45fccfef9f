// Package cache provides an LRU cache of rendered diagrams with disk persistence.
package cache

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/l3aro/jackal-flow/pkg/render"
	"github.com/vmihailenco/msgpack/v5"
)

// DefaultMaxEntries is used when Options.MaxEntries is not positive.
const DefaultMaxEntries = 256

// snapshotVersion is bumped whenever the on-disk layout changes.
const snapshotVersion = 1

// ErrVersionMismatch is returned when loading a snapshot written by another layout.
var ErrVersionMismatch = errors.New("cache snapshot version mismatch")

// Entry is one persisted diagram.
type Entry struct {
	Key       string         `msgpack:"key"`
	Visual    *render.Visual `msgpack:"visual"`
	CreatedAt time.Time      `msgpack:"created_at"`
}

type snapshot struct {
	Version int     `msgpack:"version"`
	Entries []Entry `msgpack:"entries"`
}

type item struct {
	visual    *render.Visual
	createdAt time.Time
}

// Options configures the diagram cache.
type Options struct {
	// MaxEntries is the maximum number of diagrams kept in memory.
	MaxEntries int

	// OnEvict is called when an entry is evicted.
	OnEvict func(key string)
}

// Stats holds cache hit/miss counters.
type Stats struct {
	Hits   uint64 `json:"hits"`
	Misses uint64 `json:"misses"`
	Len    int    `json:"len"`
}

// DiagramCache is an in-memory LRU of rendered diagrams keyed by description hash.
// It is safe for concurrent use.
type DiagramCache struct {
	lru    *lru.Cache[string, item]
	hits   atomic.Uint64
	misses atomic.Uint64
}

// New creates a diagram cache.
func New(opts Options) (*DiagramCache, error) {
	size := opts.MaxEntries
	if size <= 0 {
		size = DefaultMaxEntries
	}

	var onEvict func(string, item)
	if opts.OnEvict != nil {
		onEvict = func(key string, _ item) { opts.OnEvict(key) }
	}

	l, err := lru.NewWithEvict[string, item](size, onEvict)
	if err != nil {
		return nil, fmt.Errorf("creating lru: %w", err)
	}
	return &DiagramCache{lru: l}, nil
}

// Get returns the diagram stored under key.
func (c *DiagramCache) Get(key string) (*render.Visual, bool) {
	it, ok := c.lru.Get(key)
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return it.visual, true
}

// Add stores a diagram under key, evicting the least recently used entry if full.
func (c *DiagramCache) Add(key string, v *render.Visual) {
	if v == nil {
		return
	}
	c.lru.Add(key, item{visual: v, createdAt: time.Now()})
}

// Remove deletes key from the cache.
func (c *DiagramCache) Remove(key string) {
	c.lru.Remove(key)
}

// Purge removes all entries.
func (c *DiagramCache) Purge() {
	c.lru.Purge()
}

// Len returns the number of cached diagrams.
func (c *DiagramCache) Len() int {
	return c.lru.Len()
}

// Stats returns hit/miss counters.
func (c *DiagramCache) Stats() Stats {
	return Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Len:    c.lru.Len(),
	}
}

// Save writes all entries to w using msgpack, least recently used first,
// so that Load restores the same recency order.
func (c *DiagramCache) Save(w io.Writer) error {
	keys := c.lru.Keys() // oldest to newest
	snap := snapshot{Version: snapshotVersion, Entries: make([]Entry, 0, len(keys))}
	for _, k := range keys {
		it, ok := c.lru.Peek(k)
		if !ok {
			continue
		}
		snap.Entries = append(snap.Entries, Entry{Key: k, Visual: it.visual, CreatedAt: it.createdAt})
	}

	if err := msgpack.NewEncoder(w).Encode(&snap); err != nil {
		return fmt.Errorf("encoding cache: %w", err)
	}
	return nil
}

// Load restores entries from r, replacing the current contents.
func (c *DiagramCache) Load(r io.Reader) error {
	var snap snapshot
	if err := msgpack.NewDecoder(r).Decode(&snap); err != nil {
		return fmt.Errorf("decoding cache: %w", err)
	}
	if snap.Version != snapshotVersion {
		return fmt.Errorf("%w: got %d, want %d", ErrVersionMismatch, snap.Version, snapshotVersion)
	}

	c.lru.Purge()
	for _, e := range snap.Entries {
		if e.Visual == nil {
			continue
		}
		c.lru.Add(e.Key, item{visual: e.Visual, createdAt: e.CreatedAt})
	}
	return nil
}

// PersistToFile saves the cache to path, creating parent directories.
func PersistToFile(c *DiagramCache, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}

	if err := c.Save(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close cache file: %w", err)
	}
	return os.Rename(tmp, path)
}

// LoadFromFile restores the cache from path. A missing file is not an error.
func LoadFromFile(c *DiagramCache, path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open cache file: %w", err)
	}
	defer f.Close()

	return c.Load(f)
}

var _ render.Cache = (*DiagramCache)(nil)
