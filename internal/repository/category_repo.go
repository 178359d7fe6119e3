package repository

import (
	"Inkwell/internal/model"
	"Inkwell/internal/pkg/consts"
	"context"
	"errors"

	"gorm.io/gorm"
)

type CategoryWithCount struct {
	model.Category
	PostCount int64 `json:"post_count"`
}

type CategoryRepo interface {
	CreateCategory(ctx context.Context, category *model.Category) error
	UpdateCategory(ctx context.Context, category *model.Category) error
	DeleteCategory(ctx context.Context, id uint64) error
	GetCategoryByID(ctx context.Context, id uint64) (*model.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*model.Category, error)
	ListCategories(ctx context.Context) ([]*CategoryWithCount, error)
}

type CategoryRepoImpl struct {
	db *gorm.DB
}

func NewCategoryRepo(db *gorm.DB) CategoryRepo {
	return &CategoryRepoImpl{db: db}
}

func (s *CategoryRepoImpl) CreateCategory(ctx context.Context, category *model.Category) error {
	return withTx(ctx, s.db).Create(category).Error
}

func (s *CategoryRepoImpl) UpdateCategory(ctx context.Context, category *model.Category) error {
	return withTx(ctx, s.db).Model(&model.Category{}).Where("id = ?", category.ID).
		Select("name", "slug", "description").
		Updates(category).Error
}

// DeleteCategory 删除分类，原分类下的文章变为未分类
func (s *CategoryRepoImpl) DeleteCategory(ctx context.Context, id uint64) error {
	return withTx(ctx, s.db).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&model.Post{}).Where("category_id = ?", id).Update("category_id", nil).Error
		if err != nil {
			return err
		}
		return tx.Delete(&model.Category{}, id).Error
	})
}

func (s *CategoryRepoImpl) GetCategoryByID(ctx context.Context, id uint64) (*model.Category, error) {
	var category model.Category
	err := withTx(ctx, s.db).First(&category, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &category, nil
}

func (s *CategoryRepoImpl) GetCategoryBySlug(ctx context.Context, slug string) (*model.Category, error) {
	var category model.Category
	err := withTx(ctx, s.db).Where("slug = ?", slug).First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &category, nil
}

// ListCategories 附带已发布文章数
func (s *CategoryRepoImpl) ListCategories(ctx context.Context) ([]*CategoryWithCount, error) {
	categories := make([]*CategoryWithCount, 0)
	err := withTx(ctx, s.db).Table("categories").
		Select("categories.*, COUNT(posts.id) AS post_count").
		Joins("LEFT JOIN posts ON posts.category_id = categories.id AND posts.status = ?", consts.PostStatusPublished).
		Group("categories.id").
		Order("categories.name ASC").
		Scan(&categories).Error
	return categories, err
}
