package cache

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RedisNotifier 基于 redis pub/sub 的实时事件广播
type RedisNotifier struct {
	rdb *redis.Client
}

func NewRedisNotifier(rdb *redis.Client) *RedisNotifier { return &RedisNotifier{rdb: rdb} }

func (n *RedisNotifier) Publish(ctx context.Context, event string, payload []byte) error {
	return n.rdb.Publish(ctx, event, payload).Err()
}
