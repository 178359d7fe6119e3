package service

import (
	"Inkwell/internal/api/dto"
	"Inkwell/internal/model"
	"Inkwell/internal/pkg/markdown"
	"Inkwell/internal/repository"
	"context"
	"strings"
)

type TagService interface {
	CreateTag(ctx context.Context, in *dto.TagDTO) (*model.Tag, error)
	UpdateTag(ctx context.Context, id uint64, in *dto.TagDTO) (*model.Tag, error)
	DeleteTag(ctx context.Context, id uint64) error
	ListTags(ctx context.Context) ([]*repository.TagWithCount, error)
}

type tagServiceImpl struct {
	tagRepo repository.TagRepo
}

func NewTagService(tagRepo repository.TagRepo) TagService {
	return &tagServiceImpl{tagRepo: tagRepo}
}

func (s *tagServiceImpl) CreateTag(ctx context.Context, in *dto.TagDTO) (*model.Tag, error) {
	tag := &model.Tag{}
	if err := fillTag(tag, in); err != nil {
		return nil, err
	}
	if err := s.tagRepo.CreateTag(ctx, tag); err != nil {
		if isDuplicateError(err) {
			return nil, ErrTagExist
		}
		return nil, err
	}
	return tag, nil
}

func (s *tagServiceImpl) UpdateTag(ctx context.Context, id uint64, in *dto.TagDTO) (*model.Tag, error) {
	tag, err := s.tagRepo.GetTagByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tag == nil {
		return nil, ErrTagNotFound
	}
	if err = fillTag(tag, in); err != nil {
		return nil, err
	}
	if err = s.tagRepo.UpdateTag(ctx, tag); err != nil {
		if isDuplicateError(err) {
			return nil, ErrTagExist
		}
		return nil, err
	}
	return tag, nil
}

func (s *tagServiceImpl) DeleteTag(ctx context.Context, id uint64) error {
	tag, err := s.tagRepo.GetTagByID(ctx, id)
	if err != nil {
		return err
	}
	if tag == nil {
		return ErrTagNotFound
	}
	return s.tagRepo.DeleteTag(ctx, id)
}

func (s *tagServiceImpl) ListTags(ctx context.Context) ([]*repository.TagWithCount, error) {
	return s.tagRepo.ListTags(ctx)
}

func fillTag(tag *model.Tag, in *dto.TagDTO) error {
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
	tag.Name = name
	tag.Slug = slug
	return nil
}
