package memory

import (
	"Inkwell/internal/model"
	"Inkwell/internal/repository"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_TransactionRollback(t *testing.T) {
	s := New()
	ctx := context.Background()
	post := &model.Post{Title: "t", Slug: "t", Content: "x"}
	require.NoError(t, s.CreatePost(ctx, post, nil))

	boom := errors.New("boom")
	err := s.Transaction(ctx, func(ctx context.Context) error {
		require.NoError(t, s.CreateComment(ctx, &model.Comment{PostID: post.ID, AuthorName: "a", Content: "c"}))
		// 嵌套事务复用外层
		return s.Transaction(ctx, func(ctx context.Context) error {
			require.NoError(t, s.DeletePost(ctx, post.ID))
			return boom
		})
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.NotNil(t, got)
	list, total, err := s.ListComments(ctx, repository.CommentQuery{})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.EqualValues(t, 0, total)
}

func TestStore_ConcurrentTransactionsKeepCommittedWrites(t *testing.T) {
	s := New()
	ctx := context.Background()
	boom := errors.New("boom")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.Transaction(ctx, func(ctx context.Context) error {
				if err := s.CreateComment(ctx, &model.Comment{PostID: 1, AuthorName: "a", Content: "c"}); err != nil {
					return err
				}
				if i%2 == 1 {
					return boom
				}
				return nil
			})
		}(i)
	}
	wg.Wait()

	_, total, err := s.ListComments(ctx, repository.CommentQuery{})
	require.NoError(t, err)
	assert.EqualValues(t, 10, total)
}

func TestStore_DuplicateSlug(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.CreatePost(ctx, &model.Post{Title: "a", Slug: "same"}, nil))

	err := s.CreatePost(ctx, &model.Post{Title: "b", Slug: "same"}, nil)
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestStore_FailOn(t *testing.T) {
	s := New()
	down := errors.New("down")
	s.FailOn["GetCommentByID"] = down

	_, err := s.GetCommentByID(context.Background(), 1)
	assert.ErrorIs(t, err, down)
}

func TestStore_ChildIDsAndPaging(t *testing.T) {
	s := New()
	ctx := context.Background()
	root := &model.Comment{PostID: 1, AuthorName: "a", Content: "c"}
	require.NoError(t, s.CreateComment(ctx, root))
	for i := 0; i < 3; i++ {
		require.NoError(t, s.CreateComment(ctx, &model.Comment{PostID: 1, ParentID: &root.ID, AuthorName: "a", Content: "r"}))
	}

	children, err := s.GetChildIDs(ctx, []uint64{root.ID})
	require.NoError(t, err)
	assert.Len(t, children, 3)

	page, total, err := s.ListComments(ctx, repository.CommentQuery{Page: 2, PageSize: 3})
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	assert.Len(t, page, 1)

	top, total, err := s.ListComments(ctx, repository.CommentQuery{TopLevelOnly: true})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, root.ID, top[0].ID)
}
