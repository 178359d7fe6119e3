package job

import (
	"context"
	log "log/slog"
)

type ViewCountWriter interface {
	AddViewCount(ctx context.Context, postID uint64, delta int64) error
}

// PostViewJob 把 redis 中累计的阅读增量写回数据库
type PostViewJob struct {
	views   DeltaDrainer
	postSvc ViewCountWriter
}

func NewPostViewJob(views DeltaDrainer, postSvc ViewCountWriter) *PostViewJob {
	return &PostViewJob{
		views:   views,
		postSvc: postSvc,
	}
}

func (s *PostViewJob) Run() {
	ctx := newJobContext("post-view")

	deltas, err := s.views.Drain(ctx)
	if err != nil {
		log.ErrorContext(ctx, "drain post views error", "err", err)
		// 已取出的部分照常写回
	}

	var total int64
	for pid, delta := range deltas {
		if err = s.postSvc.AddViewCount(ctx, pid, delta); err != nil {
			log.ErrorContext(ctx, "write back view count error", "post_id", pid, "delta", delta, "err", err)
			continue
		}
		total += delta
	}

	if len(deltas) > 0 {
		log.InfoContext(ctx, "write back post views", "posts", len(deltas), "views", total)
	}
}
