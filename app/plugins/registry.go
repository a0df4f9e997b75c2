package plugins

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/kilianp07/virtos/config"
	"github.com/kilianp07/virtos/core/logger"
	"github.com/kilianp07/virtos/core/runcache"
)

// CacheFactory builds a result cache from its configuration section.
type CacheFactory func(ctx context.Context, cfg config.CacheConfig, log logger.Logger) (runcache.Cache, error)

var (
	mu     sync.RWMutex
	caches = map[string]CacheFactory{}
)

// RegisterCache adds or replaces the cache backend called name.
func RegisterCache(name string, f CacheFactory) {
	mu.Lock()
	defer mu.Unlock()
	caches[name] = f
}

// CacheBackends lists the registered cache backends.
func CacheBackends() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(caches))
	for n := range caches {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// NewCache builds the cache selected by cfg.Backend.
func NewCache(ctx context.Context, cfg config.CacheConfig, log logger.Logger) (runcache.Cache, error) {
	mu.RLock()
	f, ok := caches[cfg.Backend]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
	return f(ctx, cfg, log)
}
