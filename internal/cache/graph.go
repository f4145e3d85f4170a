package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

const graphVersionKey = "graph:version"

// GraphCache 缓存影响力图谱查询结果。
// key 中带有全局版本号，新增关系时 Bump 版本即可让旧结果全部失效。
type GraphCache struct {
	client *redis.Client
	ttl    time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

func NewGraphCache(client *redis.Client, ttl time.Duration) *GraphCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &GraphCache{client: client, ttl: ttl}
}

func (c *GraphCache) key(ctx context.Context, rootID string, depth, maxNodes int) (string, error) {
	ver, err := c.client.Get(ctx, graphVersionKey).Int64()
	if err != nil && err != redis.Nil {
		return "", err
	}
	return fmt.Sprintf("graph:v%d:%s:%d:%d", ver, rootID, depth, maxNodes), nil
}

// Get 命中时把结果解码到 dest 并返回 true
func (c *GraphCache) Get(ctx context.Context, rootID string, depth, maxNodes int, dest any) bool {
	key, err := c.key(ctx, rootID, depth, maxNodes)
	if err != nil {
		c.misses.Add(1)
		return false
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		c.misses.Add(1)
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		c.misses.Add(1)
		return false
	}
	c.hits.Add(1)
	return true
}

func (c *GraphCache) Set(ctx context.Context, rootID string, depth, maxNodes int, value any) error {
	key, err := c.key(ctx, rootID, depth, maxNodes)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, c.ttl).Err()
}

// Bump 使所有已缓存的图谱失效
func (c *GraphCache) Bump(ctx context.Context) error {
	return c.client.Incr(ctx, graphVersionKey).Err()
}

// Counters 返回命中/未命中次数
func (c *GraphCache) Counters() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
