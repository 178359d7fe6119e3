package service

import (
	"Inkwell/internal/api/dto"
	"Inkwell/internal/model"
	"Inkwell/internal/pkg/cache"
	"Inkwell/internal/pkg/consts"
	"Inkwell/internal/repository/memory"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryService_CRUD(t *testing.T) {
	store := memory.New()
	svc := NewCategoryService(store, cache.NewLocalCache(10, time.Minute))
	ctx := context.Background()

	tech, err := svc.CreateCategory(ctx, &dto.CategoryDTO{Name: " Tech Notes ", Description: "code"})
	require.NoError(t, err)
	assert.Equal(t, "Tech Notes", tech.Name)
	assert.Equal(t, "tech-notes", tech.Slug)

	_, err = svc.CreateCategory(ctx, &dto.CategoryDTO{Name: "Tech Notes"})
	assert.ErrorIs(t, err, ErrCategoryExist)
	_, err = svc.CreateCategory(ctx, &dto.CategoryDTO{Name: "   "})
	assert.ErrorIs(t, err, ErrParamInvalid)
	_, err = svc.CreateCategory(ctx, &dto.CategoryDTO{Name: "???"})
	assert.ErrorIs(t, err, ErrParamInvalid)

	updated, err := svc.UpdateCategory(ctx, tech.ID, &dto.CategoryDTO{Name: "Tech", Slug: "tech"})
	require.NoError(t, err)
	assert.Equal(t, "tech", updated.Slug)
	_, err = svc.UpdateCategory(ctx, 404, &dto.CategoryDTO{Name: "x"})
	assert.ErrorIs(t, err, ErrCategoryNotFound)

	post := &model.Post{Title: "p", Slug: "p", Content: "x", Status: consts.PostStatusPublished, CategoryID: &tech.ID}
	require.NoError(t, store.CreatePost(ctx, post, nil))

	list, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.EqualValues(t, 1, list[0].PostCount)

	require.NoError(t, svc.DeleteCategory(ctx, tech.ID))
	assert.ErrorIs(t, svc.DeleteCategory(ctx, tech.ID), ErrCategoryNotFound)

	kept, err := store.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	require.NotNil(t, kept)
	assert.Nil(t, kept.CategoryID)
}

func TestTagService_CRUD(t *testing.T) {
	store := memory.New()
	svc := NewTagService(store)
	ctx := context.Background()

	tag, err := svc.CreateTag(ctx, &dto.TagDTO{Name: "Go Lang"})
	require.NoError(t, err)
	assert.Equal(t, "go-lang", tag.Slug)

	_, err = svc.CreateTag(ctx, &dto.TagDTO{Name: "Other", Slug: "go-lang"})
	assert.ErrorIs(t, err, ErrTagExist)

	updated, err := svc.UpdateTag(ctx, tag.ID, &dto.TagDTO{Name: "Go"})
	require.NoError(t, err)
	assert.Equal(t, "go", updated.Slug)
	_, err = svc.UpdateTag(ctx, 404, &dto.TagDTO{Name: "x"})
	assert.ErrorIs(t, err, ErrTagNotFound)

	post := &model.Post{Title: "p", Slug: "p", Content: "x", Status: consts.PostStatusPublished}
	require.NoError(t, store.CreatePost(ctx, post, []uint64{tag.ID}))

	list, err := svc.ListTags(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.EqualValues(t, 1, list[0].PostCount)

	require.NoError(t, svc.DeleteTag(ctx, tag.ID))
	assert.ErrorIs(t, svc.DeleteTag(ctx, tag.ID), ErrTagNotFound)

	kept, err := store.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, kept.Tags)
}
