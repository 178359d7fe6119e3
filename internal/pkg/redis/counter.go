package redis

import (
	"context"
	"errors"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// DirtySet 记录需要回写数据库的 ID，定时任务通过 Drain 取走
type DirtySet struct {
	key string
}

func NewDirtySet(key string) *DirtySet {
	return &DirtySet{key: key}
}

func (s *DirtySet) Add(ctx context.Context, ids ...uint64) error {
	if len(ids) == 0 {
		return nil
	}
	members := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		members = append(members, strconv.FormatUint(id, 10))
	}
	return SAdd(ctx, s.key, members...)
}

// Drain 先改名再读取，读取期间的新写入落到新集合，不会丢失
func (s *DirtySet) Drain(ctx context.Context) ([]uint64, error) {
	processingKey := s.key + ":processing"
	ok, err := Rename(ctx, s.key, processingKey)
	if err != nil || !ok {
		return nil, err
	}
	members, err := GetSet(ctx, processingKey)
	if err != nil {
		return nil, err
	}
	ids := make([]uint64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseUint(m, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, DeleteKey(ctx, processingKey)
}

// Counter 按 ID 计数并记录脏 ID，例如文章浏览量
type Counter struct {
	prefix string
	dirty  *DirtySet
}

func NewCounter(prefix string, dirtyKey string) *Counter {
	return &Counter{prefix: prefix, dirty: NewDirtySet(dirtyKey)}
}

func (s *Counter) Incr(ctx context.Context, id uint64) error {
	idStr := strconv.FormatUint(id, 10)
	pipe := Rdb.TxPipeline()
	pipe.Incr(ctx, s.prefix+idStr)
	pipe.SAdd(ctx, s.dirty.key, idStr)
	_, err := pipe.Exec(ctx)
	return err
}

// Drain 返回各 ID 自上次回写以来的增量，并清零
func (s *Counter) Drain(ctx context.Context) (map[uint64]int64, error) {
	ids, err := s.dirty.Drain(ctx)
	if err != nil {
		return nil, err
	}
	deltas := make(map[uint64]int64, len(ids))
	for _, id := range ids {
		val, err := Rdb.GetDel(ctx, s.prefix+strconv.FormatUint(id, 10)).Int64()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return deltas, err
		}
		deltas[id] = val
	}
	return deltas, nil
}
