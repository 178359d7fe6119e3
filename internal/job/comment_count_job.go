package job

import (
	"context"
	log "log/slog"
)

type CommentCountSyncer interface {
	SyncCommentsCount(ctx context.Context, postID uint64) error
}

// CommentCountJob 审核改动了哪些文章的评论，就重新统计这些文章的已通过评论数
type CommentCountJob struct {
	dirty   IDDrainer
	postSvc CommentCountSyncer
}

func NewCommentCountJob(dirty IDDrainer, postSvc CommentCountSyncer) *CommentCountJob {
	return &CommentCountJob{
		dirty:   dirty,
		postSvc: postSvc,
	}
}

func (s *CommentCountJob) Run() {
	ctx := newJobContext("comment-count")

	postIDs, err := s.dirty.Drain(ctx)
	if err != nil {
		log.ErrorContext(ctx, "drain comment dirty set error", "err", err)
		return
	}
	if len(postIDs) == 0 {
		return
	}

	successCount := 0
	for _, pid := range postIDs {
		if err = s.postSvc.SyncCommentsCount(ctx, pid); err != nil {
			log.ErrorContext(ctx, "sync comments count error", "post_id", pid, "err", err)
			continue
		}
		successCount++
	}

	log.InfoContext(ctx, "sync comments count success",
		"total_count", len(postIDs),
		"success_count", successCount)
}
