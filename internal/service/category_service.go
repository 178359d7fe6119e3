package service

import (
	"Inkwell/internal/api/dto"
	"Inkwell/internal/model"
	"Inkwell/internal/pkg/cache"
	"Inkwell/internal/pkg/consts"
	"Inkwell/internal/pkg/markdown"
	"Inkwell/internal/repository"
	"context"
	"strings"
)

type CategoryService interface {
	CreateCategory(ctx context.Context, in *dto.CategoryDTO) (*model.Category, error)
	UpdateCategory(ctx context.Context, id uint64, in *dto.CategoryDTO) (*model.Category, error)
	DeleteCategory(ctx context.Context, id uint64) error
	ListCategories(ctx context.Context) ([]*repository.CategoryWithCount, error)
}

type categoryServiceImpl struct {
	categoryRepo repository.CategoryRepo
	cache        cache.Cache
}

func NewCategoryService(categoryRepo repository.CategoryRepo, cache cache.Cache) CategoryService {
	return &categoryServiceImpl{categoryRepo: categoryRepo, cache: cache}
}

func (s *categoryServiceImpl) CreateCategory(ctx context.Context, in *dto.CategoryDTO) (*model.Category, error) {
	category := &model.Category{}
	if err := fillCategory(category, in); err != nil {
		return nil, err
	}
	if err := s.categoryRepo.CreateCategory(ctx, category); err != nil {
		if isDuplicateError(err) {
			return nil, ErrCategoryExist
		}
		return nil, err
	}
	return category, nil
}

func (s *categoryServiceImpl) UpdateCategory(ctx context.Context, id uint64, in *dto.CategoryDTO) (*model.Category, error) {
	category, err := s.categoryRepo.GetCategoryByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}
	if err = fillCategory(category, in); err != nil {
		return nil, err
	}
	if err = s.categoryRepo.UpdateCategory(ctx, category); err != nil {
		if isDuplicateError(err) {
			return nil, ErrCategoryExist
		}
		return nil, err
	}
	return category, nil
}

// DeleteCategory 文章保留，分类置空
func (s *categoryServiceImpl) DeleteCategory(ctx context.Context, id uint64) error {
	category, err := s.categoryRepo.GetCategoryByID(ctx, id)
	if err != nil {
		return err
	}
	if category == nil {
		return ErrCategoryNotFound
	}
	if err = s.categoryRepo.DeleteCategory(ctx, id); err != nil {
		return err
	}
	_ = s.cache.Delete(ctx, consts.PostArchivesCacheKey)
	return nil
}

func (s *categoryServiceImpl) ListCategories(ctx context.Context) ([]*repository.CategoryWithCount, error) {
	return s.categoryRepo.ListCategories(ctx)
}

func fillCategory(category *model.Category, in *dto.CategoryDTO) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return ErrParamInvalid
	}
	slug := markdown.Slugify(in.Slug)
	if slug == "" {
		slug = markdown.Slugify(name)
	}
	if slug == "" {
		return ErrParamInvalid
	}
	category.Name = name
	category.Slug = slug
	category.Description = strings.TrimSpace(in.Description)
	return nil
}
