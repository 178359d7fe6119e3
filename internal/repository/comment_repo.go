package repository

import (
	"Inkwell/internal/model"
	"Inkwell/internal/pkg/consts"
	"context"
	"errors"

	"gorm.io/gorm"
)

// CommentQuery 后台评论列表过滤条件，nil 表示不过滤
type CommentQuery struct {
	PostID       *uint64
	Status       *int8
	TopLevelOnly bool
	Page         int
	PageSize     int
}

type CommentRepo interface {
	CreateComment(ctx context.Context, comment *model.Comment) error
	GetCommentByID(ctx context.Context, id uint64) (*model.Comment, error)
	GetChildIDs(ctx context.Context, parentIDs []uint64) ([]uint64, error)
	UpdateCommentStatus(ctx context.Context, ids []uint64, status int8) (int64, error)
	DeleteComments(ctx context.Context, ids []uint64) (int64, error)
	ReparentChildren(ctx context.Context, parentID uint64, newParentID *uint64) error
	ListComments(ctx context.Context, query CommentQuery) ([]*model.Comment, int64, error)
	CountByStatus(ctx context.Context) (map[int8]int64, error)
	CountApprovedByPostID(ctx context.Context, postID uint64) (int64, error)
	GetApprovedByPostID(ctx context.Context, postID uint64) ([]*model.Comment, error)
	DeleteCommentsByPostID(ctx context.Context, postID uint64) (int64, error)
}

type CommentRepoImpl struct {
	db *gorm.DB
}

func NewCommentRepo(db *gorm.DB) CommentRepo {
	return &CommentRepoImpl{db: db}
}

func (s *CommentRepoImpl) CreateComment(ctx context.Context, comment *model.Comment) error {
	return withTx(ctx, s.db).Create(comment).Error
}

func (s *CommentRepoImpl) GetCommentByID(ctx context.Context, id uint64) (*model.Comment, error) {
	var comment model.Comment
	err := withTx(ctx, s.db).First(&comment, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &comment, nil
}

// GetChildIDs 返回 parentIDs 的直接子评论
func (s *CommentRepoImpl) GetChildIDs(ctx context.Context, parentIDs []uint64) ([]uint64, error) {
	ids := make([]uint64, 0)
	if len(parentIDs) == 0 {
		return ids, nil
	}
	err := withTx(ctx, s.db).Model(&model.Comment{}).
		Where("parent_id IN ?", parentIDs).
		Order("id ASC").
		Pluck("id", &ids).Error
	return ids, err
}

func (s *CommentRepoImpl) UpdateCommentStatus(ctx context.Context, ids []uint64, status int8) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := withTx(ctx, s.db).Model(&model.Comment{}).
		Where("id IN ?", ids).
		Update("status", status)
	return result.RowsAffected, result.Error
}

func (s *CommentRepoImpl) DeleteComments(ctx context.Context, ids []uint64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := withTx(ctx, s.db).Where("id IN ?", ids).Delete(&model.Comment{})
	return result.RowsAffected, result.Error
}

// ReparentChildren 把 parentID 的直接回复挂到 newParentID 下
func (s *CommentRepoImpl) ReparentChildren(ctx context.Context, parentID uint64, newParentID *uint64) error {
	return withTx(ctx, s.db).Model(&model.Comment{}).
		Where("parent_id = ?", parentID).
		Update("parent_id", newParentID).Error
}

func (s *CommentRepoImpl) ListComments(ctx context.Context, query CommentQuery) ([]*model.Comment, int64, error) {
	db := withTx(ctx, s.db).Model(&model.Comment{})
	if query.PostID != nil {
		db = db.Where("post_id = ?", *query.PostID)
	}
	if query.Status != nil {
		db = db.Where("status = ?", *query.Status)
	}
	if query.TopLevelOnly {
		db = db.Where("parent_id IS NULL")
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	comments := make([]*model.Comment, 0)
	err := db.Order("created_at DESC").Order("id DESC").
		Limit(query.PageSize).
		Offset((query.Page - 1) * query.PageSize).
		Find(&comments).Error
	if err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}

func (s *CommentRepoImpl) CountByStatus(ctx context.Context) (map[int8]int64, error) {
	var rows []struct {
		Status int8
		Count  int64
	}
	err := withTx(ctx, s.db).Model(&model.Comment{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[int8]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (s *CommentRepoImpl) CountApprovedByPostID(ctx context.Context, postID uint64) (int64, error) {
	var count int64
	err := withTx(ctx, s.db).Model(&model.Comment{}).
		Where("post_id = ? AND status = ?", postID, consts.CommentStatusApproved).
		Count(&count).Error
	return count, err
}

// GetApprovedByPostID 按时间正序返回已通过评论，由上层组装成树
func (s *CommentRepoImpl) GetApprovedByPostID(ctx context.Context, postID uint64) ([]*model.Comment, error) {
	comments := make([]*model.Comment, 0)
	err := withTx(ctx, s.db).
		Where("post_id = ? AND status = ?", postID, consts.CommentStatusApproved).
		Order("created_at ASC").Order("id ASC").
		Find(&comments).Error
	return comments, err
}

func (s *CommentRepoImpl) DeleteCommentsByPostID(ctx context.Context, postID uint64) (int64, error) {
	result := withTx(ctx, s.db).Where("post_id = ?", postID).Delete(&model.Comment{})
	return result.RowsAffected, result.Error
}
