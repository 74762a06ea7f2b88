// Package audiocache stores synthesized audio on disk, keyed by a
// content-addressed fingerprint of the synthesis parameters. The cache is
// size-bounded and evicts oldest entries first.
package audiocache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"assessment-service/internal/pkg/logger"
)

const artifactExt = ".mp3"

// Fingerprint derives the cache key from all parameters that influence the
// synthesized output. Fields are length-prefixed before hashing so that no
// two distinct parameter tuples can collide by concatenation.
func Fingerprint(text, voiceName, rate, pitch, language string) string {
	h := sha256.New()
	for _, field := range []string{text, voiceName, rate, pitch, language} {
		fmt.Fprintf(h, "%d:%s", len(field), field)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Stats reports the cache's current footprint.
type Stats struct {
	Count           int     `json:"cached_files"`
	TotalBytes      int64   `json:"total_size_bytes"`
	MaxBytes        int64   `json:"max_size_bytes"`
	UsagePercentage float64 `json:"usage_percentage"`
}

// Cache is a disk-backed artifact store. Entries are plain files named
// {fingerprint}.mp3 under dir, so the cache survives restarts; the in-memory
// index is rebuilt from the directory at startup.
type Cache struct {
	log      *logger.Logger
	dir      string
	maxBytes int64

	mu      sync.Mutex
	entries map[string]entryInfo
	group   singleflight.Group
}

type entryInfo struct {
	size    int64
	modTime time.Time
}

// New opens (or creates) the cache directory and indexes existing artifacts.
func New(log *logger.Logger, dir string, maxBytes int64) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	c := &Cache{
		log:      log,
		dir:      dir,
		maxBytes: maxBytes,
		entries:  make(map[string]entryInfo),
	}
	if err := c.reindex(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Cache) reindex() error {
	dirEntries, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("read cache dir: %w", err)
	}
	for _, de := range dirEntries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), artifactExt) {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		key := strings.TrimSuffix(de.Name(), artifactExt)
		c.entries[key] = entryInfo{size: info.Size(), modTime: info.ModTime()}
	}
	return nil
}

// Path returns the on-disk location for a cache key.
func (c *Cache) Path(key string) string {
	return filepath.Join(c.dir, key+artifactExt)
}

// Get returns the cached artifact bytes, or ok=false on a miss.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	_, known := c.entries[key]
	c.mu.Unlock()
	if !known {
		return nil, false
	}

	data, err := os.ReadFile(c.Path(key))
	if err != nil {
		// Index was stale; drop the entry.
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}
	return data, true
}

// Put stores an artifact atomically: the bytes land in a temp file first and
// are renamed into place, so a crash mid-write never leaves a partial entry.
func (c *Cache) Put(key string, data []byte) error {
	tmp, err := os.CreateTemp(c.dir, "put-*")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Rename(tmpName, c.Path(key)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("commit artifact: %w", err)
	}

	c.mu.Lock()
	c.entries[key] = entryInfo{size: int64(len(data)), modTime: time.Now()}
	c.mu.Unlock()

	c.evictIfOverCapacity()
	return nil
}

// GetOrSynthesize returns the cached artifact for key, synthesizing and
// storing it on a miss. Concurrent misses for the same key share one
// synthesize call.
func (c *Cache) GetOrSynthesize(key string, synthesize func() ([]byte, error)) ([]byte, error) {
	if data, ok := c.Get(key); ok {
		return data, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		if data, ok := c.Get(key); ok {
			return data, nil
		}
		data, err := synthesize()
		if err != nil {
			return nil, err
		}
		if err := c.Put(key, data); err != nil {
			c.log.Warn("failed to store audio artifact", "key", key, "error", err)
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// evictIfOverCapacity removes oldest-modified artifacts until total size is
// at or below 80% of the configured maximum. Ties on modification time break
// deterministically by key.
func (c *Cache) evictIfOverCapacity() {
	c.mu.Lock()
	defer c.mu.Unlock()

	var total int64
	for _, e := range c.entries {
		total += e.size
	}
	if total <= c.maxBytes {
		return
	}
	target := int64(float64(c.maxBytes) * 0.8)

	type keyed struct {
		key string
		entryInfo
	}
	ordered := make([]keyed, 0, len(c.entries))
	for k, e := range c.entries {
		ordered = append(ordered, keyed{k, e})
	}
	sort.Slice(ordered, func(i, j int) bool {
		if !ordered[i].modTime.Equal(ordered[j].modTime) {
			return ordered[i].modTime.Before(ordered[j].modTime)
		}
		return ordered[i].key < ordered[j].key
	})

	evicted := 0
	for _, e := range ordered {
		if total <= target {
			break
		}
		if err := os.Remove(c.Path(e.key)); err != nil && !os.IsNotExist(err) {
			c.log.Warn("failed to evict audio artifact", "key", e.key, "error", err)
			continue
		}
		delete(c.entries, e.key)
		total -= e.size
		evicted++
	}
	if evicted > 0 {
		c.log.Info("evicted audio artifacts", "count", evicted, "total_bytes", total)
	}
}

// Clear removes every artifact. Returns the number of entries dropped.
func (c *Cache) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key := range c.entries {
		if err := os.Remove(c.Path(key)); err != nil && !os.IsNotExist(err) {
			c.log.Warn("failed to remove audio artifact", "key", key, "error", err)
			continue
		}
		delete(c.entries, key)
		removed++
	}
	return removed
}

// Stats returns the current cache footprint.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	var total int64
	for _, e := range c.entries {
		total += e.size
	}
	s := Stats{Count: len(c.entries), TotalBytes: total, MaxBytes: c.maxBytes}
	if c.maxBytes > 0 {
		s.UsagePercentage = float64(total) / float64(c.maxBytes) * 100
	}
	return s
}
