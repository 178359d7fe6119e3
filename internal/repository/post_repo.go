package repository

import (
	"Inkwell/internal/model"
	"Inkwell/internal/pkg/consts"
	"Inkwell/internal/pkg/markdown"
	"context"
	"errors"

	"gorm.io/gorm"
)

// PostQuery 文章列表过滤条件
type PostQuery struct {
	Status     *int8
	CategoryID *uint64
	TagID      *uint64
	Keyword    string
	Page       int
	PageSize   int
}

type PostArchive struct {
	Year  int   `json:"year"`
	Month int   `json:"month"`
	Count int64 `json:"count"`
}

type PostRepo interface {
	CreatePost(ctx context.Context, post *model.Post, tagIDs []uint64) error
	UpdatePost(ctx context.Context, post *model.Post, tagIDs []uint64) error
	UpdateRenderCache(ctx context.Context, id uint64, html string, toc []*markdown.TocEntry, version int) error
	DeletePost(ctx context.Context, id uint64) error
	GetPostByID(ctx context.Context, id uint64) (*model.Post, error)
	GetPostBySlug(ctx context.Context, slug string) (*model.Post, error)
	GetPostByIds(ctx context.Context, ids []uint64) ([]*model.Post, error)
	ListPosts(ctx context.Context, query PostQuery) ([]*model.Post, int64, error)
	GetArchives(ctx context.Context) ([]*PostArchive, error)
	GetStaleRenderPosts(ctx context.Context, version int, limit int) ([]*model.Post, error)
	UpdateCommentsCount(ctx context.Context, id uint64, count int64) error
	IncrViewCount(ctx context.Context, id uint64, delta int64) error
	SlugExists(ctx context.Context, slug string, excludeID uint64) (bool, error)
}

type PostRepoImpl struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepo {
	return &PostRepoImpl{
		db: db,
	}
}

func (s *PostRepoImpl) CreatePost(ctx context.Context, post *model.Post, tagIDs []uint64) error {
	return withTx(ctx, s.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Category", "Tags").Create(post).Error; err != nil {
			return err
		}
		return replacePostTags(tx, post.ID, tagIDs)
	})
}

// UpdatePost 整体覆盖文章字段与标签
func (s *PostRepoImpl) UpdatePost(ctx context.Context, post *model.Post, tagIDs []uint64) error {
	return withTx(ctx, s.db).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&model.Post{}).Where("id = ?", post.ID).
			Select("category_id", "title", "slug", "summary", "content", "html_content", "toc",
				"render_version", "status", "allow_comment", "published_at").
			Updates(post).Error
		if err != nil {
			return err
		}
		return replacePostTags(tx, post.ID, tagIDs)
	})
}

func replacePostTags(tx *gorm.DB, postID uint64, tagIDs []uint64) error {
	if err := tx.Where("post_id = ?", postID).Delete(&model.PostTag{}).Error; err != nil {
		return err
	}
	if len(tagIDs) == 0 {
		return nil
	}
	rows := make([]*model.PostTag, 0, len(tagIDs))
	for _, tagID := range tagIDs {
		rows = append(rows, &model.PostTag{PostID: postID, TagID: tagID})
	}
	return tx.Create(rows).Error
}

func (s *PostRepoImpl) UpdateRenderCache(ctx context.Context, id uint64, html string, toc []*markdown.TocEntry, version int) error {
	return withTx(ctx, s.db).Model(&model.Post{}).Where("id = ?", id).
		Select("html_content", "toc", "render_version").
		Updates(&model.Post{HTMLContent: html, TOC: toc, RenderVersion: version}).Error
}

func (s *PostRepoImpl) DeletePost(ctx context.Context, id uint64) error {
	return withTx(ctx, s.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&model.PostTag{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Post{}, id).Error
	})
}

func (s *PostRepoImpl) GetPostByID(ctx context.Context, id uint64) (*model.Post, error) {
	var post model.Post
	err := withTx(ctx, s.db).Preload("Category").Preload("Tags").First(&post, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &post, nil
}

func (s *PostRepoImpl) GetPostBySlug(ctx context.Context, slug string) (*model.Post, error) {
	var post model.Post
	err := withTx(ctx, s.db).Preload("Category").Preload("Tags").Where("slug = ?", slug).First(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &post, nil
}

func (s *PostRepoImpl) GetPostByIds(ctx context.Context, ids []uint64) ([]*model.Post, error) {
	posts := make([]*model.Post, 0)
	if len(ids) == 0 {
		return posts, nil
	}
	err := withTx(ctx, s.db).Preload("Category").Preload("Tags").Where("id IN ?", ids).Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// ListPosts 列表不加载正文渲染结果
func (s *PostRepoImpl) ListPosts(ctx context.Context, query PostQuery) ([]*model.Post, int64, error) {
	db := withTx(ctx, s.db).Model(&model.Post{})
	if query.Status != nil {
		db = db.Where("status = ?", *query.Status)
	}
	if query.CategoryID != nil {
		db = db.Where("category_id = ?", *query.CategoryID)
	}
	if query.TagID != nil {
		db = db.Where("id IN (?)", withTx(ctx, s.db).Model(&model.PostTag{}).Select("post_id").Where("tag_id = ?", *query.TagID))
	}
	if query.Keyword != "" {
		like := "%" + query.Keyword + "%"
		db = db.Where("title LIKE ? OR content LIKE ?", like, like)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	posts := make([]*model.Post, 0)
	err := db.Omit("content", "html_content", "toc").
		Preload("Category").Preload("Tags").
		Order("published_at IS NULL DESC").Order("published_at DESC").Order("id DESC").
		Limit(query.PageSize).
		Offset((query.Page - 1) * query.PageSize).
		Find(&posts).Error
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// GetArchives 已发布文章按年月归档，新的在前
func (s *PostRepoImpl) GetArchives(ctx context.Context) ([]*PostArchive, error) {
	archives := make([]*PostArchive, 0)
	err := withTx(ctx, s.db).Model(&model.Post{}).
		Select("YEAR(published_at) AS year, MONTH(published_at) AS month, COUNT(*) AS count").
		Where("status = ? AND published_at IS NOT NULL", consts.PostStatusPublished).
		Group("year, month").
		Order("year DESC, month DESC").
		Scan(&archives).Error
	return archives, err
}

func (s *PostRepoImpl) GetStaleRenderPosts(ctx context.Context, version int, limit int) ([]*model.Post, error) {
	posts := make([]*model.Post, 0)
	err := withTx(ctx, s.db).
		Where("content <> ''").
		Where("html_content IS NULL OR html_content = '' OR render_version < ?", version).
		Order("id ASC").
		Limit(limit).
		Find(&posts).Error
	return posts, err
}

func (s *PostRepoImpl) UpdateCommentsCount(ctx context.Context, id uint64, count int64) error {
	return withTx(ctx, s.db).Model(&model.Post{}).Where("id = ?", id).
		UpdateColumn("comments_count", count).Error
}

func (s *PostRepoImpl) IncrViewCount(ctx context.Context, id uint64, delta int64) error {
	return withTx(ctx, s.db).Model(&model.Post{}).Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", delta)).Error
}

func (s *PostRepoImpl) SlugExists(ctx context.Context, slug string, excludeID uint64) (bool, error) {
	var count int64
	err := withTx(ctx, s.db).Model(&model.Post{}).
		Where("slug = ? AND id <> ?", slug, excludeID).
		Count(&count).Error
	return count > 0, err
}
