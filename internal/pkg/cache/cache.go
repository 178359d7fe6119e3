// Package cache 文章详情等读多写少数据的缓存，单实例部署用本地 LRU，多实例部署用 redis
package cache

import (
	"Inkwell/internal/api/config"
	"context"
	"time"
)

// Cache 值以 JSON 序列化存储，Get 未命中时返回 false
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

const (
	DriverLocal = "local"
	DriverRedis = "redis"
)

// New 按配置选择实现
func New(cfg config.CacheConfig) Cache {
	ttl := time.Duration(cfg.TTLSeconds) * time.Second
	if cfg.Driver == DriverRedis {
		return NewRedisCache(cfg.Prefix, ttl)
	}
	return NewLocalCache(cfg.Size, ttl)
}
