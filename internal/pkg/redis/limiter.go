package redis

import (
	"context"
	"time"
)

// IntervalLimiter 同一 key 在 interval 内只放行一次
type IntervalLimiter struct {
	prefix   string
	interval time.Duration
}

func NewIntervalLimiter(prefix string, interval time.Duration) *IntervalLimiter {
	return &IntervalLimiter{prefix: prefix, interval: interval}
}

func (s *IntervalLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if s.interval <= 0 {
		return true, nil
	}
	return Rdb.SetNX(ctx, s.prefix+key, 1, s.interval).Result()
}
