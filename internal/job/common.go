package job

import (
	"Inkwell/internal/pkg/logger"
	"context"

	"github.com/google/uuid"
)

// IDDrainer 取走待处理的 ID 集合
type IDDrainer interface {
	Drain(ctx context.Context) ([]uint64, error)
}

// DeltaDrainer 取走各 ID 的累计增量
type DeltaDrainer interface {
	Drain(ctx context.Context) (map[uint64]int64, error)
}

// Locker 跨实例互斥
type Locker interface {
	TryLock(ctx context.Context) (bool, error)
	Unlock(ctx context.Context)
}

func newJobContext(name string) context.Context {
	return logger.WithTraceID(context.Background(), "job-"+name+"-"+uuid.NewString())
}
