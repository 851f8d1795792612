package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/openboard/board-backend/internal/board"
)

const keyPostList = "board:posts"

// CacheMetrics is the metrics hook the cache needs.
type CacheMetrics interface {
	RecordCacheHit(ctx context.Context, key string)
	RecordCacheMiss(ctx context.Context, key string)
}

// Cache is an optional short-TTL cache for the post list, backed by Redis.
// When Redis is unreachable at startup the cache silently disables itself;
// the board works without it. Only durable-path results are cached, and every
// successful mutation invalidates the entry, so a reader in the same process
// always sees its own writes.
type Cache struct {
	client  *redis.Client
	ttl     time.Duration
	logger  *zap.SugaredLogger
	metrics CacheMetrics
}

// NewCache connects to Redis at addr. An empty addr or a failed ping yields
// a disabled cache, never an error.
func NewCache(addr string, ttl time.Duration, logger *zap.SugaredLogger, metrics CacheMetrics) *Cache {
	c := &Cache{ttl: ttl, logger: logger, metrics: metrics}
	if addr == "" {
		return c
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		if logger != nil {
			logger.Warnw("Redis unavailable; post list caching disabled", "error", err)
		}
		_ = client.Close()
		return c
	}

	c.client = client
	return c
}

// Enabled reports whether a Redis connection is live.
func (c *Cache) Enabled() bool {
	return c != nil && c.client != nil
}

// GetPosts returns the cached post list, or ok=false on a miss or any cache
// error. Cache errors are never surfaced to the request path.
func (c *Cache) GetPosts(ctx context.Context) ([]board.Post, bool) {
	if !c.Enabled() {
		return nil, false
	}

	val, err := c.client.Get(ctx, keyPostList).Result()
	if err != nil {
		if err != redis.Nil && c.logger != nil {
			c.logger.Errorw("Cache get error", "key", keyPostList, "error", err)
		}
		if c.metrics != nil {
			c.metrics.RecordCacheMiss(ctx, keyPostList)
		}
		return nil, false
	}

	var posts []board.Post
	if err := json.Unmarshal([]byte(val), &posts); err != nil {
		if c.logger != nil {
			c.logger.Errorw("Cache unmarshal error", "key", keyPostList, "error", err)
		}
		return nil, false
	}
	if c.metrics != nil {
		c.metrics.RecordCacheHit(ctx, keyPostList)
	}
	return posts, true
}

// SetPosts stores the post list under the configured TTL. Callers only cache
// results served by the durable store.
func (c *Cache) SetPosts(ctx context.Context, posts []board.Post) {
	if !c.Enabled() {
		return
	}
	data, err := json.Marshal(posts)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, keyPostList, data, c.ttl).Err(); err != nil && c.logger != nil {
		c.logger.Errorw("Cache set error", "key", keyPostList, "error", err)
	}
}

// Invalidate drops the cached list; called after every successful mutation.
func (c *Cache) Invalidate(ctx context.Context) {
	if !c.Enabled() {
		return
	}
	if err := c.client.Del(ctx, keyPostList).Err(); err != nil && c.logger != nil {
		c.logger.Errorw("Cache delete error", "key", keyPostList, "error", err)
	}
}

// Close releases the Redis connection.
func (c *Cache) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}
