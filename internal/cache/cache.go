// Package cache provides a small read-through cache for report payloads.
// Reports aggregate whole ledgers, so dashboards hammer the same queries;
// a short TTL keeps them cheap without risking stale stock decisions.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// ReportCache stores serialized report payloads keyed by shop and period.
type ReportCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	// InvalidateShop drops every cached report for the shop. Called after
	// any stock mutation.
	InvalidateShop(ctx context.Context, shopID string)
}

type redisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) ReportCache {
	return &redisCache{client: client}
}

func reportKey(shopID, key string) string {
	return "reports:" + shopID + ":" + key
}

func (c *redisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return val, true
}

func (c *redisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	_ = c.client.Set(ctx, key, value, ttl).Err()
}

func (c *redisCache) InvalidateShop(ctx context.Context, shopID string) {
	var cursor uint64
	pattern := reportKey(shopID, "*")
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return
		}
		if len(keys) > 0 {
			_ = c.client.Del(ctx, keys...).Err()
		}
		if next == 0 {
			return
		}
		cursor = next
	}
}

// Key builds a report cache key scoped to a shop.
func Key(shopID, name string) string {
	return reportKey(shopID, name)
}

// Noop satisfies ReportCache when no redis is configured.
type Noop struct{}

func (Noop) Get(ctx context.Context, key string) ([]byte, bool) { return nil, false }

func (Noop) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {}

func (Noop) InvalidateShop(ctx context.Context, shopID string) {}
