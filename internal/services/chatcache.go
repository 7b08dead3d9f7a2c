package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"disaster-bot/internal/llm"
)

// RedisResponseCache keeps raw LLM completions in Redis with a TTL.
type RedisResponseCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisResponseCache(client *redis.Client, ttl time.Duration) *RedisResponseCache {
	return &RedisResponseCache{client: client, ttl: ttl}
}

func (c *RedisResponseCache) Get(ctx context.Context, key string) (*llm.Completion, bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var completion llm.Completion
	if err := json.Unmarshal(raw, &completion); err != nil {
		// Corrupt entry: treat as a miss so it gets overwritten.
		return nil, false, nil
	}
	return &completion, true, nil
}

func (c *RedisResponseCache) Set(ctx context.Context, key string, completion *llm.Completion) error {
	data, err := json.Marshal(completion)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}
