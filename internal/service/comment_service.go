package service

import (
	"Inkwell/internal/model"
	"Inkwell/internal/pkg/cache"
	"Inkwell/internal/pkg/consts"
	"Inkwell/internal/pkg/markdown"
	"Inkwell/internal/pkg/mongo"
	"Inkwell/internal/repository"
	"context"
	"fmt"
	log "log/slog"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

const (
	ResultSuccess = "success"
	ResultError   = "error"

	maxCommentPageSize = 100
)

type CreateCommentInput struct {
	PostID      uint64
	ParentID    *uint64
	AuthorName  string
	AuthorEmail string
	Content     string
	Status      int8
	IP          string
	UserAgent   string
}

// ModerationResult 业务失败通过 Status=error 返回，只有存储异常才返回 error
type ModerationResult struct {
	Status              string `json:"status"`
	Message             string `json:"message"`
	AffectedCount       int64  `json:"affected_count"`
	DeletedRepliesCount int64  `json:"deleted_replies_count"`
}

type BatchItemResult struct {
	ID uint64 `json:"id"`
	ModerationResult
}

type BatchResult struct {
	SuccessCount int                `json:"success_count"`
	FailureCount int                `json:"failure_count"`
	Results      []*BatchItemResult `json:"results"`
}

type CommentStats struct {
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Rejected int64 `json:"rejected"`
	Total    int64 `json:"total"`
}

type ListCommentsQuery struct {
	PostID       *uint64
	Status       *int8
	TopLevelOnly bool
	Page         int
	PageSize     int
}

type CommentPage struct {
	List     []*model.Comment `json:"list"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
}

// CommentNode 前台评论树节点，不暴露邮箱与 IP
type CommentNode struct {
	ID         uint64         `json:"id"`
	ParentID   *uint64        `json:"parent_id"`
	AuthorName string         `json:"author_name"`
	Content    string         `json:"content"`
	CreatedAt  time.Time      `json:"created_at"`
	Replies    []*CommentNode `json:"replies"`
}

// DirtyTracker 记录评论数需要重新统计的文章
type DirtyTracker interface {
	Add(ctx context.Context, ids ...uint64) error
}

// SubmitLimiter 前台提交频率限制
type SubmitLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type CommentService interface {
	CreateComment(ctx context.Context, in *CreateCommentInput) (*model.Comment, error)
	SubmitComment(ctx context.Context, in *CreateCommentInput) (*model.Comment, error)
	ApproveComment(ctx context.Context, id uint64, cascade bool) (*ModerationResult, error)
	RejectComment(ctx context.Context, id uint64, cascade bool) (*ModerationResult, error)
	DeleteComment(ctx context.Context, id uint64, deleteReplies bool) (*ModerationResult, error)
	BatchApprove(ctx context.Context, ids []uint64, cascade bool) (*BatchResult, error)
	BatchDelete(ctx context.Context, ids []uint64, deleteReplies bool) (*BatchResult, error)
	GetCommentStats(ctx context.Context) (*CommentStats, error)
	ListComments(ctx context.Context, query *ListCommentsQuery) (*CommentPage, error)
	GetPostComments(ctx context.Context, postID uint64) ([]*CommentNode, error)
	ListModerationLogs(ctx context.Context, query mongo.ModerationLogQuery) ([]*mongo.ModerationLog, int64, error)
}

type CommentServiceImpl struct {
	commentRepo repository.CommentRepo
	postRepo    repository.PostRepo
	transactor  repository.Transactor
	auditRepo   mongo.ModerationLogRepo
	dirty       DirtyTracker
	cache       cache.Cache
	limiter     SubmitLimiter
	maxLength   int
	validate    *validator.Validate
}

// NewCommentService auditRepo / dirty / limiter 可为 nil
func NewCommentService(
	commentRepo repository.CommentRepo,
	postRepo repository.PostRepo,
	transactor repository.Transactor,
	auditRepo mongo.ModerationLogRepo,
	dirty DirtyTracker,
	cache cache.Cache,
	limiter SubmitLimiter,
	maxLength int,
) CommentService {
	return &CommentServiceImpl{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		transactor:  transactor,
		auditRepo:   auditRepo,
		dirty:       dirty,
		cache:       cache,
		limiter:     limiter,
		maxLength:   maxLength,
		validate:    validator.New(),
	}
}

func (s *CommentServiceImpl) CreateComment(ctx context.Context, in *CreateCommentInput) (*model.Comment, error) {
	content := strings.TrimSpace(markdown.SanitizeComment(in.Content))
	if content == "" {
		return nil, ErrCommentContentEmpty
	}
	if s.maxLength > 0 && utf8.RuneCountInString(content) > s.maxLength {
		return nil, ErrCommentContentTooLong
	}
	author := strings.TrimSpace(markdown.SanitizeComment(in.AuthorName))
	if author == "" {
		return nil, ErrCommentAuthorEmpty
	}
	email := strings.TrimSpace(in.AuthorEmail)
	if email != "" && s.validate.Var(email, "email") != nil {
		return nil, ErrCommentEmailInvalid
	}
	// 后台与初始化数据可以指定任意合法状态
	if consts.CommentStatusName(in.Status) == "" {
		return nil, ErrParamInvalid
	}

	post, err := s.postRepo.GetPostByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	if in.ParentID != nil {
		parent, err := s.commentRepo.GetCommentByID(ctx, *in.ParentID)
		if err != nil {
			return nil, err
		}
		if parent == nil || parent.PostID != in.PostID {
			return nil, ErrCommentParentInvalid
		}
	}

	comment := &model.Comment{
		PostID:      in.PostID,
		ParentID:    in.ParentID,
		AuthorName:  author,
		AuthorEmail: email,
		Content:     content,
		Status:      in.Status,
		IP:          in.IP,
		UserAgent:   in.UserAgent,
	}
	if err = s.commentRepo.CreateComment(ctx, comment); err != nil {
		return nil, err
	}
	if comment.Status == consts.CommentStatusApproved {
		s.afterChange(ctx, comment.PostID)
	}
	return comment, nil
}

// SubmitComment 前台提交，强制待审核并校验文章是否开放评论
func (s *CommentServiceImpl) SubmitComment(ctx context.Context, in *CreateCommentInput) (*model.Comment, error) {
	if s.limiter != nil && in.IP != "" {
		ok, err := s.limiter.Allow(ctx, in.IP)
		if err != nil {
			log.WarnContext(ctx, "comment submit limiter failed", "ip", in.IP, "err", err)
		} else if !ok {
			return nil, ErrCommentTooFrequent
		}
	}

	post, err := s.postRepo.GetPostByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if post == nil || post.Status != consts.PostStatusPublished {
		return nil, ErrPostNotFound
	}
	if !post.AllowComment {
		return nil, ErrPostCommentClosed
	}

	in.Status = consts.CommentStatusPending
	return s.CreateComment(ctx, in)
}

func (s *CommentServiceImpl) ApproveComment(ctx context.Context, id uint64, cascade bool) (*ModerationResult, error) {
	var result *ModerationResult
	var snapshot *model.Comment
	err := s.transactor.Transaction(ctx, func(ctx context.Context) error {
		comment, err := s.commentRepo.GetCommentByID(ctx, id)
		if err != nil {
			return err
		}
		if comment == nil {
			result = notFoundResult(id)
			return nil
		}
		snapshot = comment

		ids := []uint64{id}
		if cascade {
			levels, err := s.collectDescendants(ctx, id)
			if err != nil {
				return err
			}
			for _, level := range levels {
				ids = append(ids, level...)
			}
		}
		if _, err = s.commentRepo.UpdateCommentStatus(ctx, ids, consts.CommentStatusApproved); err != nil {
			return err
		}

		result = &ModerationResult{
			Status:        ResultSuccess,
			AffectedCount: int64(len(ids)),
		}
		if cascade && len(ids) > 1 {
			result.Message = fmt.Sprintf("评论 %d 及其 %d 条回复已通过", id, len(ids)-1)
		} else {
			result.Message = fmt.Sprintf("评论 %d 已通过", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if snapshot != nil {
		s.afterChange(ctx, snapshot.PostID)
		s.audit(ctx, consts.ModerationApprove, snapshot, cascade, result.AffectedCount)
	}
	return result, nil
}

func (s *CommentServiceImpl) RejectComment(ctx context.Context, id uint64, cascade bool) (*ModerationResult, error) {
	return s.removeComment(ctx, consts.ModerationReject, id, cascade)
}

func (s *CommentServiceImpl) DeleteComment(ctx context.Context, id uint64, deleteReplies bool) (*ModerationResult, error) {
	return s.removeComment(ctx, consts.ModerationDelete, id, deleteReplies)
}

// removeComment 物理删除评论。级联时自底向上逐层删除回复，否则回复挂到被删评论的父评论下
func (s *CommentServiceImpl) removeComment(ctx context.Context, action string, id uint64, cascade bool) (*ModerationResult, error) {
	var result *ModerationResult
	var snapshot *model.Comment
	err := s.transactor.Transaction(ctx, func(ctx context.Context) error {
		comment, err := s.commentRepo.GetCommentByID(ctx, id)
		if err != nil {
			return err
		}
		if comment == nil {
			result = notFoundResult(id)
			return nil
		}
		snapshot = comment

		var replies int64
		if cascade {
			levels, err := s.collectDescendants(ctx, id)
			if err != nil {
				return err
			}
			for i := len(levels) - 1; i >= 0; i-- {
				n, err := s.commentRepo.DeleteComments(ctx, levels[i])
				if err != nil {
					return err
				}
				replies += n
			}
		} else {
			if err = s.commentRepo.ReparentChildren(ctx, id, comment.ParentID); err != nil {
				return err
			}
		}
		if _, err = s.commentRepo.DeleteComments(ctx, []uint64{id}); err != nil {
			return err
		}

		verb := "已驳回"
		if action == consts.ModerationDelete {
			verb = "已删除"
		}
		result = &ModerationResult{
			Status:              ResultSuccess,
			AffectedCount:       replies + 1,
			DeletedRepliesCount: replies,
		}
		if replies > 0 {
			result.Message = fmt.Sprintf("评论 %d %s，同时删除 %d 条回复", id, verb, replies)
		} else {
			result.Message = fmt.Sprintf("评论 %d %s", id, verb)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if snapshot != nil {
		s.afterChange(ctx, snapshot.PostID)
		s.audit(ctx, action, snapshot, cascade, result.AffectedCount)
	}
	return result, nil
}

func (s *CommentServiceImpl) BatchApprove(ctx context.Context, ids []uint64, cascade bool) (*BatchResult, error) {
	return s.batch(ctx, ids, func(ctx context.Context, id uint64) (*ModerationResult, error) {
		return s.ApproveComment(ctx, id, cascade)
	})
}

func (s *CommentServiceImpl) BatchDelete(ctx context.Context, ids []uint64, deleteReplies bool) (*BatchResult, error) {
	return s.batch(ctx, ids, func(ctx context.Context, id uint64) (*ModerationResult, error) {
		return s.DeleteComment(ctx, id, deleteReplies)
	})
}

// batch 每个 ID 独立事务，单个失败不影响其余
func (s *CommentServiceImpl) batch(ctx context.Context, ids []uint64, op func(ctx context.Context, id uint64) (*ModerationResult, error)) (*BatchResult, error) {
	if len(ids) == 0 {
		return nil, ErrParamInvalid
	}
	out := &BatchResult{Results: make([]*BatchItemResult, 0, len(ids))}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result, err := op(ctx, id)
		if err != nil {
			log.ErrorContext(ctx, "batch moderation failed", "comment_id", id, "err", err)
			result = &ModerationResult{Status: ResultError, Message: UnExpectedError.Error()}
		}
		if result.Status == ResultSuccess {
			out.SuccessCount++
		} else {
			out.FailureCount++
		}
		out.Results = append(out.Results, &BatchItemResult{ID: id, ModerationResult: *result})
	}
	return out, nil
}

func (s *CommentServiceImpl) GetCommentStats(ctx context.Context) (*CommentStats, error) {
	counts, err := s.commentRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	stats := &CommentStats{
		Pending:  counts[consts.CommentStatusPending],
		Approved: counts[consts.CommentStatusApproved],
		Rejected: counts[consts.CommentStatusRejected],
	}
	for _, n := range counts {
		stats.Total += n
	}
	return stats, nil
}

func (s *CommentServiceImpl) ListComments(ctx context.Context, query *ListCommentsQuery) (*CommentPage, error) {
	page, pageSize := normalizePage(query.Page, query.PageSize, maxCommentPageSize)
	list, total, err := s.commentRepo.ListComments(ctx, repository.CommentQuery{
		PostID:       query.PostID,
		Status:       query.Status,
		TopLevelOnly: query.TopLevelOnly,
		Page:         page,
		PageSize:     pageSize,
	})
	if err != nil {
		return nil, err
	}
	return &CommentPage{List: list, Total: total, Page: page, PageSize: pageSize}, nil
}

// GetPostComments 已通过评论组装成树，父评论不可见时回复提升为顶级
func (s *CommentServiceImpl) GetPostComments(ctx context.Context, postID uint64) ([]*CommentNode, error) {
	key := consts.PostCommentsCacheKey + strconv.FormatUint(postID, 10)
	var cached []*CommentNode
	if ok, err := s.cache.Get(ctx, key, &cached); err == nil && ok {
		return cached, nil
	}

	comments, err := s.commentRepo.GetApprovedByPostID(ctx, postID)
	if err != nil {
		return nil, err
	}
	nodes := make(map[uint64]*CommentNode, len(comments))
	for _, c := range comments {
		nodes[c.ID] = &CommentNode{
			ID:         c.ID,
			ParentID:   c.ParentID,
			AuthorName: c.AuthorName,
			Content:    c.Content,
			CreatedAt:  c.CreatedAt,
			Replies:    make([]*CommentNode, 0),
		}
	}
	roots := make([]*CommentNode, 0)
	for _, c := range comments {
		node := nodes[c.ID]
		if c.ParentID != nil {
			if parent, ok := nodes[*c.ParentID]; ok {
				parent.Replies = append(parent.Replies, node)
				continue
			}
		}
		roots = append(roots, node)
	}

	if err = s.cache.Set(ctx, key, roots, 0); err != nil {
		log.WarnContext(ctx, "cache post comments failed", "post_id", postID, "err", err)
	}
	return roots, nil
}

func (s *CommentServiceImpl) ListModerationLogs(ctx context.Context, query mongo.ModerationLogQuery) ([]*mongo.ModerationLog, int64, error) {
	if s.auditRepo == nil {
		return []*mongo.ModerationLog{}, 0, nil
	}
	if query.Limit <= 0 || query.Limit > maxCommentPageSize {
		query.Limit = 20
	}
	return s.auditRepo.ListModerationLogs(ctx, query)
}

// collectDescendants 按层返回子孙评论 ID，levels[0] 为直接回复
func (s *CommentServiceImpl) collectDescendants(ctx context.Context, id uint64) ([][]uint64, error) {
	visited := map[uint64]struct{}{id: {}}
	levels := make([][]uint64, 0)
	frontier := []uint64{id}
	for len(frontier) > 0 {
		children, err := s.commentRepo.GetChildIDs(ctx, frontier)
		if err != nil {
			return nil, err
		}
		next := make([]uint64, 0, len(children))
		for _, child := range children {
			if _, ok := visited[child]; ok {
				continue
			}
			visited[child] = struct{}{}
			next = append(next, child)
		}
		if len(next) == 0 {
			break
		}
		levels = append(levels, next)
		frontier = next
	}
	return levels, nil
}

// afterChange 评论可见性变化后标记计数待刷新并清理缓存
func (s *CommentServiceImpl) afterChange(ctx context.Context, postID uint64) {
	if s.dirty != nil {
		if err := s.dirty.Add(ctx, postID); err != nil {
			log.WarnContext(ctx, "mark post comment count dirty failed", "post_id", postID, "err", err)
		}
	}
	id := strconv.FormatUint(postID, 10)
	err := s.cache.Delete(ctx, consts.PostCommentsCacheKey+id, consts.PostDetailCacheKey+id)
	if err != nil {
		log.WarnContext(ctx, "invalidate post cache failed", "post_id", postID, "err", err)
	}
}

// audit 审核日志写入失败只记录，不影响审核结果
func (s *CommentServiceImpl) audit(ctx context.Context, action string, comment *model.Comment, cascade bool, affected int64) {
	if s.auditRepo == nil {
		return
	}
	entry := &mongo.ModerationLog{
		Action:     action,
		CommentID:  comment.ID,
		PostID:     comment.PostID,
		OperatorID: OperatorFromContext(ctx),
		Cascade:    cascade,
		Affected:   affected,
		Snapshot: mongo.CommentSnapshot{
			AuthorName:  comment.AuthorName,
			AuthorEmail: comment.AuthorEmail,
			Content:     comment.Content,
			Status:      comment.Status,
			ParentID:    comment.ParentID,
			IP:          comment.IP,
			CreatedAt:   comment.CreatedAt,
		},
		CreatedAt: time.Now(),
	}
	if err := s.auditRepo.CreateModerationLog(ctx, entry); err != nil {
		log.ErrorContext(ctx, "write moderation log failed", "action", action, "comment_id", comment.ID, "err", err)
	}
}

func notFoundResult(id uint64) *ModerationResult {
	return &ModerationResult{
		Status:  ResultError,
		Message: fmt.Sprintf("评论 %d 不存在", id),
	}
}
