package catalog

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// CachedClient is a read-through cache in front of another Client.
// Entries expire after TTL so names and prices stay refreshable; a cache
// or redis failure degrades to a plain remote lookup.
type CachedClient struct {
	inner Client
	rdb   *redis.Client
	ttl   time.Duration
	log   *slog.Logger
}

func NewCachedClient(inner Client, rdb *redis.Client, ttl time.Duration, log *slog.Logger) *CachedClient {
	return &CachedClient{inner: inner, rdb: rdb, ttl: ttl, log: log}
}

func (c *CachedClient) ValidateProducts(ctx context.Context, ids []string) (map[string]Product, error) {
	found := make(map[string]Product, len(ids))
	var misses []string
	for _, id := range dedupe(ids) {
		raw, err := c.rdb.Get(ctx, c.key(id)).Result()
		if err != nil {
			if err != redis.Nil {
				c.log.Warn("catalog cache read failed", "product_id", id, "err", err)
			}
			misses = append(misses, id)
			continue
		}
		var p Product
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			misses = append(misses, id)
			continue
		}
		found[p.ID] = p
	}

	if len(misses) == 0 {
		return found, nil
	}

	remote, err := c.inner.ValidateProducts(ctx, misses)
	if err != nil {
		return nil, err
	}
	for id, p := range remote {
		found[id] = p
		if raw, err := json.Marshal(p); err == nil {
			if err := c.rdb.Set(ctx, c.key(id), raw, c.ttl).Err(); err != nil {
				c.log.Warn("catalog cache write failed", "product_id", id, "err", err)
			}
		}
	}
	return found, nil
}

func (c *CachedClient) key(id string) string { return "catalog:product:" + id }

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
