package mappings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/meridian-erp/meridian-ledger/internal/tenant"
)

// Cache is a read-through Redis cache in front of a mapping source.
// Redis failures degrade to direct lookups; they are never surfaced.
// Concurrent misses for the same key collapse into one source lookup.
type Cache struct {
	inner  Source
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
	group  singleflight.Group
}

// NewCache wraps a source with a Redis cache.
func NewCache(inner Source, client *redis.Client, ttl time.Duration, logger *slog.Logger) *Cache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{inner: inner, client: client, ttl: ttl, logger: logger}
}

// Lookup implements Source.
func (c *Cache) Lookup(ctx context.Context, tn tenant.Tenant, module, key string) (int64, error) {
	cacheKey := fmt.Sprintf("mappings:%s:%s:%s", tn, normalize(module), normalize(key))
	if c.client != nil {
		cached, err := c.client.Get(ctx, cacheKey).Result()
		if err == nil {
			if accountID, parseErr := strconv.ParseInt(cached, 10, 64); parseErr == nil {
				return accountID, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			c.logger.Warn("mapping cache get", slog.String("key", cacheKey), slog.Any("error", err))
		}
	}
	result, err, _ := c.group.Do(cacheKey, func() (any, error) {
		accountID, err := c.inner.Lookup(ctx, tn, module, key)
		if err != nil {
			return int64(0), err
		}
		if c.client != nil {
			if err := c.client.Set(ctx, cacheKey, strconv.FormatInt(accountID, 10), c.ttl).Err(); err != nil {
				c.logger.Warn("mapping cache set", slog.String("key", cacheKey), slog.Any("error", err))
			}
		}
		return accountID, nil
	})
	if err != nil {
		return 0, err
	}
	return result.(int64), nil
}

// Invalidate drops the cached value after a mapping update.
func (c *Cache) Invalidate(ctx context.Context, tn tenant.Tenant, module, key string) {
	if c.client == nil {
		return
	}
	cacheKey := fmt.Sprintf("mappings:%s:%s:%s", tn, normalize(module), normalize(key))
	if err := c.client.Del(ctx, cacheKey).Err(); err != nil {
		c.logger.Warn("mapping cache del", slog.String("key", cacheKey), slog.Any("error", err))
	}
}
