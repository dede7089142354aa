package dedup

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisHistory stores one key per exported listing with a Retention TTL.
type RedisHistory struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisClient parses redisURL and verifies connectivity.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL(%q): %w", redisURL, err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return client, nil
}

func NewRedisHistory(rdb *redis.Client, prefix string) *RedisHistory {
	if prefix == "" {
		prefix = "jobfilter:seen:"
	}
	return &RedisHistory{rdb: rdb, prefix: prefix}
}

func (h *RedisHistory) IsSeen(ctx context.Context, id string) (bool, error) {
	n, err := h.rdb.Exists(ctx, h.prefix+id).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

func (h *RedisHistory) Add(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	pipe := h.rdb.Pipeline()
	for _, id := range ids {
		pipe.SetNX(ctx, h.prefix+id, 1, Retention)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis setnx: %w", err)
	}
	return nil
}
