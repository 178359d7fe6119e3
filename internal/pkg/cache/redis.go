package cache

import (
	"Inkwell/internal/pkg/redis"
	"context"
	"time"

	"github.com/goccy/go-json"
)

// RedisCache 多实例共享的缓存
type RedisCache struct {
	prefix     string
	defaultTTL time.Duration
}

func NewRedisCache(prefix string, defaultTTL time.Duration) *RedisCache {
	return &RedisCache{prefix: prefix, defaultTTL: defaultTTL}
}

func (s *RedisCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	value, err := redis.GetValue(ctx, s.prefix+key)
	if err != nil {
		return false, err
	}
	if value == "" {
		return false, nil
	}
	if err = json.Unmarshal([]byte(value), dest); err != nil {
		_ = redis.DeleteKey(ctx, s.prefix+key)
		return false, err
	}
	return true, nil
}

func (s *RedisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	return redis.SetWithExpiration(ctx, s.prefix+key, string(data), ttl)
}

func (s *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, 0, len(keys))
	for _, key := range keys {
		full = append(full, s.prefix+key)
	}
	return redis.DeleteKey(ctx, full...)
}
