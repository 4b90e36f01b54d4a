// Package cache provides a two-tier read-through cache: an in-process LRU in
// front of an optional shared Redis instance.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"staybook/pkg/logger"

	"github.com/karlseguin/ccache/v3"
	"github.com/redis/go-redis/v9"
)

type Cache[T any] interface {
	Get(ctx context.Context, key string) (T, bool)
	Set(ctx context.Context, key string, value T)
	Delete(ctx context.Context, key string)
}

type Config struct {
	// Prefix namespaces keys in the shared tier.
	Prefix  string
	TTL     time.Duration
	MaxSize int64
}

type twoTier[T any] struct {
	local  *ccache.Cache[T]
	remote *redis.Client
	cfg    Config
	log    *logger.Logger
}

// New builds a cache. remote may be nil, in which case only the local tier is
// used.
func New[T any](cfg Config, remote *redis.Client, log *logger.Logger) Cache[T] {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = 1000
	}
	return &twoTier[T]{
		local:  ccache.New(ccache.Configure[T]().MaxSize(cfg.MaxSize)),
		remote: remote,
		cfg:    cfg,
		log:    log,
	}
}

func (c *twoTier[T]) Get(ctx context.Context, key string) (T, bool) {
	var zero T

	if item := c.local.Get(key); item != nil && !item.Expired() {
		return item.Value(), true
	}

	if c.remote == nil {
		return zero, false
	}

	data, err := c.remote.Get(ctx, c.remoteKey(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("Shared cache read failed", "key", key, "error", err)
		}
		return zero, false
	}

	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		c.log.Warn("Discarding undecodable shared cache entry", "key", key, "error", err)
		return zero, false
	}

	c.local.Set(key, value, c.cfg.TTL)
	return value, true
}

func (c *twoTier[T]) Set(ctx context.Context, key string, value T) {
	c.local.Set(key, value, c.cfg.TTL)

	if c.remote == nil {
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		c.log.Warn("Failed to encode shared cache entry", "key", key, "error", err)
		return
	}
	if err := c.remote.Set(ctx, c.remoteKey(key), data, c.cfg.TTL).Err(); err != nil {
		c.log.Warn("Shared cache write failed", "key", key, "error", err)
	}
}

func (c *twoTier[T]) Delete(ctx context.Context, key string) {
	c.local.Delete(key)

	if c.remote == nil {
		return
	}
	if err := c.remote.Del(ctx, c.remoteKey(key)).Err(); err != nil {
		c.log.Warn("Shared cache delete failed", "key", key, "error", err)
	}
}

func (c *twoTier[T]) remoteKey(key string) string {
	return c.cfg.Prefix + key
}
