package job

import (
	"context"
	log "log/slog"
	"time"
)

const renderBatchSize = 100

type RenderRebuilder interface {
	RebuildStaleRenders(ctx context.Context, limit int) (int, error)
}

// RenderCacheJob 渲染规则升级后，分批重建旧版本的 HTML 与目录
type RenderCacheJob struct {
	lock    Locker
	postSvc RenderRebuilder
	timeout time.Duration
}

func NewRenderCacheJob(lock Locker, postSvc RenderRebuilder) *RenderCacheJob {
	return &RenderCacheJob{
		lock:    lock,
		postSvc: postSvc,
		timeout: 10 * time.Minute,
	}
}

func (s *RenderCacheJob) Run() {
	ctx, cancel := context.WithTimeout(newJobContext("render-cache"), s.timeout)
	defer cancel()

	ok, err := s.lock.TryLock(ctx)
	if err != nil {
		log.ErrorContext(ctx, "acquire render job lock error", "err", err)
		return
	}
	if !ok {
		log.InfoContext(ctx, "render job is running on another instance")
		return
	}
	defer s.lock.Unlock(context.Background())

	total := 0
	for {
		n, err := s.postSvc.RebuildStaleRenders(ctx, renderBatchSize)
		total += n
		if err != nil {
			log.ErrorContext(ctx, "rebuild stale renders error", "err", err)
			break
		}
		// 不足一批说明已处理完，或剩余的都更新失败
		if n < renderBatchSize {
			break
		}
	}

	if total > 0 {
		log.InfoContext(ctx, "rebuild stale renders success", "count", total)
	}
}
