package runcache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kilianp07/virtos/core/logger"
	"github.com/kilianp07/virtos/core/model"
)

const keyPrefix = "virtos:run:"

// RedisConfig configures a RedisCache.
type RedisConfig struct {
	Addr     string        `json:"addr"`
	Password string        `json:"password"`
	DB       int           `json:"db"`
	TTL      time.Duration `json:"ttl"`
}

// RedisCache shares results between processes through Redis. Values are
// JSON encoded results stored under virtos:run:<fingerprint>:<registry hash>.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	log    logger.Logger
}

// NewRedisCache connects to Redis and checks the connection with PING.
func NewRedisCache(ctx context.Context, cfg RedisConfig, log logger.Logger) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return NewRedisCacheFromClient(client, cfg.TTL, log), nil
}

// NewRedisCacheFromClient wraps an existing client. A zero ttl keeps entries forever.
func NewRedisCacheFromClient(client *redis.Client, ttl time.Duration, log logger.Logger) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, log: log}
}

func (c *RedisCache) Get(ctx context.Context, k Key) (model.SimulationResult, bool) {
	var res model.SimulationResult
	raw, err := c.client.Get(ctx, keyPrefix+k.String()).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warnf("run cache get %s: %v", k, err)
		}
		return res, false
	}
	if err := json.Unmarshal(raw, &res); err != nil {
		c.log.Warnf("run cache decode %s: %v", k, err)
		return model.SimulationResult{}, false
	}
	return res, true
}

func (c *RedisCache) Put(ctx context.Context, k Key, res model.SimulationResult) {
	if !k.Valid() {
		return
	}
	data, err := json.Marshal(res)
	if err != nil {
		c.log.Warnf("run cache encode %s: %v", k, err)
		return
	}
	if err := c.client.Set(ctx, keyPrefix+k.String(), data, c.ttl).Err(); err != nil {
		c.log.Warnf("run cache set %s: %v", k, err)
	}
}

// Close releases the underlying connection pool.
func (c *RedisCache) Close() error { return c.client.Close() }
