package redis

import (
	"context"
	"strconv"
	"time"
)

// SessionRevoker 记录用户会话的失效时间（Unix 秒），
// 不晚于该时间签发的 Token 都视为失效；ttl 取 Token 最长有效期
type SessionRevoker struct {
	prefix string
	ttl    time.Duration
}

func NewSessionRevoker(prefix string, ttl time.Duration) *SessionRevoker {
	return &SessionRevoker{prefix: prefix, ttl: ttl}
}

func (s *SessionRevoker) Revoke(ctx context.Context, userID uint64) error {
	return SetWithExpiration(ctx, s.key(userID), time.Now().Unix(), s.ttl)
}

// RevokedAt 未记录时返回 0
func (s *SessionRevoker) RevokedAt(ctx context.Context, userID uint64) (int64, error) {
	value, err := GetValue(ctx, s.key(userID))
	if err != nil || value == "" {
		return 0, err
	}
	return strconv.ParseInt(value, 10, 64)
}

func (s *SessionRevoker) key(userID uint64) string {
	return s.prefix + strconv.FormatUint(userID, 10)
}
