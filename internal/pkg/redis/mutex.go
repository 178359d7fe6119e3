package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Mutex 单次尝试的分布式锁，多实例部署时保证定时任务只跑一份
type Mutex struct {
	key   string
	ttl   time.Duration
	token string
}

func NewMutex(key string, ttl time.Duration) *Mutex {
	return &Mutex{key: key, ttl: ttl}
}

func (m *Mutex) TryLock(ctx context.Context) (bool, error) {
	token := uuid.NewString()
	ok, err := TryLock(ctx, m.key, token, m.ttl, 1)
	if err != nil || !ok {
		return false, err
	}
	m.token = token
	return true, nil
}

func (m *Mutex) Unlock(ctx context.Context) {
	if m.token == "" {
		return
	}
	UnLock(ctx, m.key, m.token)
	m.token = ""
}
