package speech

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/klauspost/compress/zstd"
)

// Cache stores synthesized clips so repeated listens of the same reply skip
// the paid synthesis call. Two tiers: a small in-memory map with LRU
// eviction, and zstd-compressed files on disk that survive restarts. Disk
// failures degrade to memory-only operation.
type Cache struct {
	mu       sync.Mutex
	mem      map[string][]byte
	order    []string
	memBytes int64
	memCap   int64

	dir string
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewCache creates a cache writing compressed clips under dir. An empty dir
// disables the disk tier.
func NewCache(dir string, memCap int64) (*Cache, error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache dir: %w", err)
		}
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("creating zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}

	return &Cache{
		mem:    make(map[string][]byte),
		memCap: memCap,
		dir:    dir,
		enc:    enc,
		dec:    dec,
	}, nil
}

// Key derives the cache key for a synthesis request. The model is part of
// the key so a config change never serves clips voiced by a different model.
func Key(model, voice, text string) string {
	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(voice))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached container bytes for key, promoting disk hits into
// memory.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if data, ok := c.mem[key]; ok {
		c.touch(key)
		return data, true
	}
	if c.dir == "" {
		return nil, false
	}

	compressed, err := os.ReadFile(c.path(key))
	if err != nil {
		return nil, false
	}
	data, err := c.dec.DecodeAll(compressed, nil)
	if err != nil {
		log.Warn("discarding corrupt cached clip", "key", key, "err", err)
		_ = os.Remove(c.path(key))
		return nil, false
	}
	c.store(key, data)
	return data, true
}

// Put stores the container bytes in both tiers. Disk writes are best
// effort.
func (c *Cache) Put(key string, data []byte) {
	c.mu.Lock()
	c.store(key, data)
	c.mu.Unlock()

	if c.dir == "" {
		return
	}
	if err := os.WriteFile(c.path(key), c.enc.EncodeAll(data, nil), 0o644); err != nil {
		log.Warn("could not persist clip to cache", "err", err)
	}
}

func (c *Cache) path(key string) string {
	return filepath.Join(c.dir, key+".wav.zst")
}

// store inserts into the memory tier, evicting least-recently-used entries
// past the byte cap. Callers hold the lock.
func (c *Cache) store(key string, data []byte) {
	if _, ok := c.mem[key]; ok {
		c.touch(key)
		return
	}
	c.mem[key] = data
	c.order = append(c.order, key)
	c.memBytes += int64(len(data))

	for c.memBytes > c.memCap && len(c.order) > 1 {
		oldest := c.order[0]
		c.order = c.order[1:]
		c.memBytes -= int64(len(c.mem[oldest]))
		delete(c.mem, oldest)
	}
}

// touch moves key to the most-recent end. Callers hold the lock.
func (c *Cache) touch(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			c.order = append(c.order, key)
			return
		}
	}
}
