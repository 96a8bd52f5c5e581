// Package cache provides a Redis-backed read-through cache for item search
// results. Entries expire on a TTL and are flushed wholesale whenever any
// item changes, so a stale hit can never outlive a catalog write.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"lendit/internal/models"
)

const searchKeyPrefix = "lendit:search:"

// SearchCache caches search responses keyed by query text and window.
type SearchCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zerolog.Logger
}

// NewSearchCache wraps a Redis client. TTL values at or below zero disable
// expiry-based eviction (invalidation still applies).
func NewSearchCache(client *redis.Client, ttl time.Duration, logger *zerolog.Logger) *SearchCache {
	return &SearchCache{client: client, ttl: ttl, logger: logger}
}

// GetSearch returns a cached result set, if present.
func (c *SearchCache) GetSearch(ctx context.Context, key string) ([]*models.Item, bool) {
	data, err := c.client.Get(ctx, searchKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.logger.Warn().Err(err).Msg("search cache get failed")
		return nil, false
	}
	var items []*models.Item
	if err := json.Unmarshal(data, &items); err != nil {
		c.logger.Warn().Err(err).Msg("search cache entry corrupt")
		return nil, false
	}
	return items, true
}

// SetSearch stores a result set. Failures are logged and swallowed; the
// cache is best-effort.
func (c *SearchCache) SetSearch(ctx context.Context, key string, items []*models.Item) {
	data, err := json.Marshal(items)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, searchKeyPrefix+key, data, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("search cache set failed")
	}
}

// InvalidateSearch drops every cached search result.
func (c *SearchCache) InvalidateSearch(ctx context.Context) {
	iter := c.client.Scan(ctx, 0, searchKeyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn().Err(err).Msg("search cache scan failed")
		return
	}
	if len(keys) > 0 {
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			c.logger.Warn().Err(err).Msg("search cache invalidation failed")
		}
	}
}
