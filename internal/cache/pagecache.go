package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

// PageCache memoizes rendered list/dashboard responses in Redis, keyed by
// request path and query variant. A nil Redis client degrades every call to
// a miss so a cache outage never fails a request.
type PageCache struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewPageCache(redisClient *redis.Client, ttl time.Duration) *PageCache {
	return &PageCache{
		redis: redisClient,
		ttl:   ttl,
	}
}

func (c *PageCache) key(path, variant string) string {
	if variant == "" {
		return fmt.Sprintf("page:%s", path)
	}
	return fmt.Sprintf("page:%s?%s", path, variant)
}

// Get returns the cached payload for a path variant, or ok=false on a miss.
func (c *PageCache) Get(ctx context.Context, path, variant string) ([]byte, bool) {
	if c.redis == nil {
		return nil, false
	}

	data, err := c.redis.Get(ctx, c.key(path, variant)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.Printf("[CACHE] Read failed for %s: %v", path, err)
		return nil, false
	}

	return data, true
}

// Set stores a rendered payload for a path variant with the cache TTL.
func (c *PageCache) Set(ctx context.Context, path, variant string, payload []byte) {
	if c.redis == nil {
		return
	}

	if err := c.redis.Set(ctx, c.key(path, variant), payload, c.ttl).Err(); err != nil {
		log.Printf("[CACHE] Write failed for %s: %v", path, err)
	}
}

// Invalidate deletes every cached variant of the given paths, query-string
// variants included. Called by the mutation pipeline after a committed write.
func (c *PageCache) Invalidate(ctx context.Context, paths ...string) {
	if c.redis == nil {
		return
	}

	for _, path := range paths {
		pattern := fmt.Sprintf("page:%s*", path)

		var cursor uint64
		for {
			keys, next, err := c.redis.Scan(ctx, cursor, pattern, 100).Result()
			if err != nil {
				log.Printf("[CACHE] Scan failed for %s: %v", path, err)
				return
			}

			if len(keys) > 0 {
				if err := c.redis.Del(ctx, keys...).Err(); err != nil {
					log.Printf("[CACHE] Delete failed for %s: %v", path, err)
					return
				}
			}

			cursor = next
			if cursor == 0 {
				break
			}
		}

		log.Printf("[CACHE] Invalidated %s", path)
	}
}
