package cache

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

const defaultLocalSize = 1024

type localEntry struct {
	data     []byte
	expireAt time.Time
}

// LocalCache 进程内 LRU，expirable.LRU 自带锁，可被多个请求并发访问
type LocalCache struct {
	lru        *expirable.LRU[string, localEntry]
	defaultTTL time.Duration
}

func NewLocalCache(size int, defaultTTL time.Duration) *LocalCache {
	if size <= 0 {
		size = defaultLocalSize
	}
	return &LocalCache{
		lru:        expirable.NewLRU[string, localEntry](size, nil, defaultTTL),
		defaultTTL: defaultTTL,
	}
}

func (s *LocalCache) Get(_ context.Context, key string, dest any) (bool, error) {
	entry, ok := s.lru.Get(key)
	if !ok {
		return false, nil
	}
	if !entry.expireAt.IsZero() && time.Now().After(entry.expireAt) {
		s.lru.Remove(key)
		return false, nil
	}
	if err := json.Unmarshal(entry.data, dest); err != nil {
		s.lru.Remove(key)
		return false, err
	}
	return true, nil
}

// Set ttl 只能比构造时的默认 TTL 更短
func (s *LocalCache) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	entry := localEntry{data: data}
	if ttl > 0 {
		entry.expireAt = time.Now().Add(ttl)
	}
	s.lru.Add(key, entry)
	return nil
}

func (s *LocalCache) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		s.lru.Remove(key)
	}
	return nil
}

func (s *LocalCache) Len() int {
	return s.lru.Len()
}
