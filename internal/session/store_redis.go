package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"vismooc/pkg/platform/sentinel"
)

const redisKeyPrefix = "vismooc:sess:"

// RedisStore persists sessions in Redis as JSON blobs with a server-side TTL.
type RedisStore struct {
	client redis.Cmdable
}

func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, sid string) (map[string]any, error) {
	raw, err := s.client.Get(ctx, redisKeyPrefix+sid).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", sid, err)
	}

	var values map[string]any
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", sid, err)
	}
	return values, nil
}

func (s *RedisStore) Set(ctx context.Context, sid string, values map[string]any, ttl time.Duration) error {
	raw, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", sid, err)
	}
	if err := s.client.Set(ctx, redisKeyPrefix+sid, raw, ttl).Err(); err != nil {
		return fmt.Errorf("store session %s: %w", sid, err)
	}
	return nil
}

func (s *RedisStore) Destroy(ctx context.Context, sid string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+sid).Err(); err != nil {
		return fmt.Errorf("destroy session %s: %w", sid, err)
	}
	return nil
}
