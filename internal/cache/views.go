package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ViewDedupe 同一访客在 TTL 内重复观看同一片段只计一次
type ViewDedupe struct {
	client *redis.Client
	ttl    time.Duration
}

func NewViewDedupe(client *redis.Client, ttl time.Duration) *ViewDedupe {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &ViewDedupe{client: client, ttl: ttl}
}

// FirstView 返回 true 表示本次应计数。redis 出错时按首次观看处理。
func (d *ViewDedupe) FirstView(ctx context.Context, clipID, viewer string) (bool, error) {
	if viewer == "" {
		return true, nil
	}
	ok, err := d.client.SetNX(ctx, fmt.Sprintf("views:seen:%s:%s", clipID, viewer), 1, d.ttl).Result()
	if err != nil {
		return true, err
	}
	return ok, nil
}
