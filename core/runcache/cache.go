// Package runcache memoises simulation results by site fingerprint and
// registry hash. Caches are advisory: a miss or a backend failure never
// fails a simulation.
package runcache

import (
	"context"
	"sync"

	"github.com/kilianp07/virtos/core/model"
)

// Key identifies a cached result.
type Key struct {
	Fingerprint  string
	RegistryHash string
}

func (k Key) String() string { return k.Fingerprint + ":" + k.RegistryHash }

// Valid reports whether both parts of the key are set.
func (k Key) Valid() bool { return k.Fingerprint != "" && k.RegistryHash != "" }

// Cache stores simulation results. Stored results must not be mutated by callers.
type Cache interface {
	Get(ctx context.Context, k Key) (model.SimulationResult, bool)
	Put(ctx context.Context, k Key, res model.SimulationResult)
}

// DefaultMaxEntries bounds a MemoryCache built with a non-positive limit.
const DefaultMaxEntries = 256

// MemoryCache is a bounded in-process cache with FIFO eviction.
type MemoryCache struct {
	mu    sync.RWMutex
	max   int
	data  map[Key]model.SimulationResult
	order []Key
}

// NewMemoryCache returns an empty cache holding at most maxEntries results.
func NewMemoryCache(maxEntries int) *MemoryCache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &MemoryCache{max: maxEntries, data: make(map[Key]model.SimulationResult)}
}

func (c *MemoryCache) Get(_ context.Context, k Key) (model.SimulationResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	res, ok := c.data[k]
	return res, ok
}

func (c *MemoryCache) Put(_ context.Context, k Key, res model.SimulationResult) {
	if !k.Valid() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.data[k]; !ok {
		c.order = append(c.order, k)
	}
	c.data[k] = res
	for len(c.order) > c.max {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.data, oldest)
	}
}

// Len returns the number of cached results.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// NopCache never stores anything.
type NopCache struct{}

func (NopCache) Get(context.Context, Key) (model.SimulationResult, bool) {
	return model.SimulationResult{}, false
}
func (NopCache) Put(context.Context, Key, model.SimulationResult) {}
