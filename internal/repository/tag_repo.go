package repository

import (
	"Inkwell/internal/model"
	"Inkwell/internal/pkg/consts"
	"Inkwell/internal/pkg/markdown"
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TagWithCount struct {
	model.Tag
	PostCount int64 `json:"post_count"`
}

type TagRepo interface {
	CreateTag(ctx context.Context, tag *model.Tag) error
	UpdateTag(ctx context.Context, tag *model.Tag) error
	DeleteTag(ctx context.Context, id uint64) error
	GetTagByID(ctx context.Context, id uint64) (*model.Tag, error)
	GetTagBySlug(ctx context.Context, slug string) (*model.Tag, error)
	GetOrCreateTags(ctx context.Context, tagNames []string) ([]*model.Tag, error)
	ListTags(ctx context.Context) ([]*TagWithCount, error)
}

type tagRepoImpl struct {
	db *gorm.DB
}

func NewTagRepository(db *gorm.DB) TagRepo {
	return &tagRepoImpl{
		db: db,
	}
}

func (s *tagRepoImpl) CreateTag(ctx context.Context, tag *model.Tag) error {
	return withTx(ctx, s.db).Create(tag).Error
}

func (s *tagRepoImpl) UpdateTag(ctx context.Context, tag *model.Tag) error {
	return withTx(ctx, s.db).Model(&model.Tag{}).Where("id = ?", tag.ID).
		Select("name", "slug").
		Updates(tag).Error
}

func (s *tagRepoImpl) DeleteTag(ctx context.Context, id uint64) error {
	return withTx(ctx, s.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tag_id = ?", id).Delete(&model.PostTag{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Tag{}, id).Error
	})
}

func (s *tagRepoImpl) GetTagByID(ctx context.Context, id uint64) (*model.Tag, error) {
	var tag model.Tag
	err := withTx(ctx, s.db).First(&tag, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tag, nil
}

func (s *tagRepoImpl) GetTagBySlug(ctx context.Context, slug string) (*model.Tag, error) {
	var tag model.Tag
	err := withTx(ctx, s.db).Where("slug = ?", slug).First(&tag).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tag, nil
}

// GetOrCreateTags 不存在的标签自动创建，使用 OnConflict DoNothing 避免重复
func (s *tagRepoImpl) GetOrCreateTags(ctx context.Context, tagNames []string) ([]*model.Tag, error) {
	tags := make([]*model.Tag, 0, len(tagNames))
	if len(tagNames) == 0 {
		return tags, nil
	}
	db := withTx(ctx, s.db)
	for _, tagName := range tagNames {
		tag := model.Tag{
			Name:      tagName,
			Slug:      markdown.Slugify(tagName),
			CreatedAt: time.Now(),
		}
		err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&tag).Error
		if err != nil {
			return nil, err
		}
	}

	err := db.Where("name IN ?", tagNames).Find(&tags).Error
	if err != nil {
		return nil, err
	}
	return tags, nil
}

func (s *tagRepoImpl) ListTags(ctx context.Context) ([]*TagWithCount, error) {
	tags := make([]*TagWithCount, 0)
	err := withTx(ctx, s.db).Table("tags").
		Select("tags.*, COUNT(posts.id) AS post_count").
		Joins("LEFT JOIN post_tags ON post_tags.tag_id = tags.id").
		Joins("LEFT JOIN posts ON posts.id = post_tags.post_id AND posts.status = ?", consts.PostStatusPublished).
		Group("tags.id").
		Order("tags.name ASC").
		Scan(&tags).Error
	return tags, err
}
