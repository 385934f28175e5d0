package semantic

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"

	"github.com/careatlas/clauseguard/internal/infrastructure/monitoring/logging"
)

// VectorCache is an optional external backend behind the in-process cache.
// Backend failures are non-fatal; the matcher recomputes on a miss.
type VectorCache interface {
	Get(ctx context.Context, key string) ([][]float64, bool, error)
	Set(ctx context.Context, key string, vectors [][]float64) error
}

// Cache memoizes embedding vectors keyed by a digest of the chunk list. It
// is safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	entries map[string][][]float64
	backend VectorCache
	logger  logging.Logger
}

// NewCache returns a Cache. backend may be nil for in-memory-only caching.
func NewCache(backend VectorCache, logger logging.Logger) *Cache {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Cache{
		entries: make(map[string][][]float64),
		backend: backend,
		logger:  logger,
	}
}

// Key builds a stable cache key from a prefix and the chunk list.
func Key(prefix string, texts []string) string {
	payload, _ := json.Marshal(texts)
	digest := sha256.Sum256(payload)
	return prefix + "_" + hex.EncodeToString(digest[:])
}

// Get checks the in-process map first, then the backend. Backend hits are
// promoted into the map.
func (c *Cache) Get(ctx context.Context, key string) ([][]float64, bool) {
	c.mu.RLock()
	vectors, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return vectors, true
	}

	if c.backend == nil {
		return nil, false
	}
	vectors, ok, err := c.backend.Get(ctx, key)
	if err != nil {
		c.logger.Warn("vector cache backend read failed", logging.Err(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}

	c.mu.Lock()
	c.entries[key] = vectors
	c.mu.Unlock()
	return vectors, true
}

// Set stores vectors in the map and, when present, the backend.
func (c *Cache) Set(ctx context.Context, key string, vectors [][]float64) {
	c.mu.Lock()
	c.entries[key] = vectors
	c.mu.Unlock()

	if c.backend == nil {
		return
	}
	if err := c.backend.Set(ctx, key, vectors); err != nil {
		c.logger.Warn("vector cache backend write failed", logging.Err(err))
	}
}

// Clear drops all in-process entries. Backend entries are untouched.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string][][]float64)
	c.mu.Unlock()
}

// Len reports the number of in-process entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
