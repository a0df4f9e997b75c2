package plugins

import (
	"context"
	"fmt"

	"github.com/kilianp07/virtos/config"
	"github.com/kilianp07/virtos/core/logger"
	"github.com/kilianp07/virtos/core/runcache"
)

func init() {
	RegisterCache("none", func(context.Context, config.CacheConfig, logger.Logger) (runcache.Cache, error) {
		return runcache.NopCache{}, nil
	})
	RegisterCache("memory", func(_ context.Context, cfg config.CacheConfig, _ logger.Logger) (runcache.Cache, error) {
		return runcache.NewMemoryCache(cfg.MaxEntries), nil
	})
	RegisterCache("redis", func(ctx context.Context, cfg config.CacheConfig, log logger.Logger) (runcache.Cache, error) {
		c, err := runcache.NewRedisCache(ctx, cfg.Redis, log)
		if err != nil {
			return nil, fmt.Errorf("redis cache %s: %w", cfg.Redis.Addr, err)
		}
		return c, nil
	})
}
