package service

import (
	"Inkwell/internal/model"
	"Inkwell/internal/pkg/cache"
	"Inkwell/internal/pkg/consts"
	"Inkwell/internal/pkg/mongo"
	"Inkwell/internal/repository/memory"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDirty struct {
	mu  sync.Mutex
	ids []uint64
}

func (f *fakeDirty) Add(_ context.Context, ids ...uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = append(f.ids, ids...)
	return nil
}

type fakeLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (f *fakeLimiter) Allow(_ context.Context, key string) (bool, error) {
	f.keys = append(f.keys, key)
	return f.allow, f.err
}

type fakeAuditRepo struct {
	logs []*mongo.ModerationLog
	err  error
}

func (f *fakeAuditRepo) CreateModerationLog(_ context.Context, entry *mongo.ModerationLog) error {
	if f.err != nil {
		return f.err
	}
	f.logs = append(f.logs, entry)
	return nil
}

func (f *fakeAuditRepo) ListModerationLogs(_ context.Context, query mongo.ModerationLogQuery) ([]*mongo.ModerationLog, int64, error) {
	out := make([]*mongo.ModerationLog, 0)
	for _, l := range f.logs {
		if query.CommentID != 0 && l.CommentID != query.CommentID {
			continue
		}
		out = append(out, l)
	}
	return out, int64(len(out)), nil
}

type commentFixture struct {
	store   *memory.Store
	dirty   *fakeDirty
	limiter *fakeLimiter
	audit   *fakeAuditRepo
	svc     CommentService
	post    *model.Post
}

func newCommentFixture(t *testing.T) *commentFixture {
	t.Helper()
	f := &commentFixture{
		store:   memory.New(),
		dirty:   &fakeDirty{},
		limiter: &fakeLimiter{allow: true},
		audit:   &fakeAuditRepo{},
	}
	f.svc = NewCommentService(f.store, f.store, f.store, f.audit, f.dirty,
		cache.NewLocalCache(100, time.Minute), f.limiter, 200)

	now := time.Now()
	f.post = &model.Post{
		UserID:       1,
		Title:        "Hello",
		Slug:         "hello",
		Content:      "# Hello",
		Status:       consts.PostStatusPublished,
		AllowComment: true,
		PublishedAt:  &now,
	}
	require.NoError(t, f.store.CreatePost(context.Background(), f.post, nil))
	return f
}

func (f *commentFixture) add(t *testing.T, parentID *uint64, status int8) *model.Comment {
	t.Helper()
	c, err := f.svc.CreateComment(context.Background(), &CreateCommentInput{
		PostID:     f.post.ID,
		ParentID:   parentID,
		AuthorName: "reader",
		Content:    "nice post",
		Status:     status,
	})
	require.NoError(t, err)
	return c
}

// thread 一条顶级评论，两条直接回复，其中一条再有一条回复
func (f *commentFixture) thread(t *testing.T, status int8) (parent, r1, r2, grand *model.Comment) {
	t.Helper()
	parent = f.add(t, nil, status)
	r1 = f.add(t, &parent.ID, status)
	r2 = f.add(t, &parent.ID, status)
	grand = f.add(t, &r1.ID, status)
	return
}

func (f *commentFixture) count(t *testing.T) int64 {
	t.Helper()
	stats, err := f.svc.GetCommentStats(context.Background())
	require.NoError(t, err)
	return stats.Total
}

func TestCommentService_RejectCascadeRemovesWholeThread(t *testing.T) {
	f := newCommentFixture(t)
	parent, _, _, _ := f.thread(t, consts.CommentStatusPending)
	require.EqualValues(t, 4, f.count(t))

	result, err := f.svc.RejectComment(context.Background(), parent.ID, true)
	require.NoError(t, err)

	assert.Equal(t, ResultSuccess, result.Status)
	assert.EqualValues(t, 4, result.AffectedCount)
	assert.EqualValues(t, 3, result.DeletedRepliesCount)
	assert.EqualValues(t, 0, f.count(t))
}

func TestCommentService_ApproveCascade(t *testing.T) {
	f := newCommentFixture(t)
	parent, r1, r2, grand := f.thread(t, consts.CommentStatusPending)
	other := f.add(t, nil, consts.CommentStatusPending)

	result, err := f.svc.ApproveComment(context.Background(), parent.ID, true)
	require.NoError(t, err)
	assert.Equal(t, ResultSuccess, result.Status)
	assert.EqualValues(t, 4, result.AffectedCount)

	for _, id := range []uint64{parent.ID, r1.ID, r2.ID, grand.ID} {
		c, err := f.store.GetCommentByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, consts.CommentStatusApproved, c.Status, "comment %d", id)
	}
	c, err := f.store.GetCommentByID(context.Background(), other.ID)
	require.NoError(t, err)
	assert.Equal(t, consts.CommentStatusPending, c.Status)
	assert.Contains(t, f.dirty.ids, f.post.ID)
}

func TestCommentService_ApproveWithoutCascade(t *testing.T) {
	f := newCommentFixture(t)
	parent, r1, _, _ := f.thread(t, consts.CommentStatusPending)

	result, err := f.svc.ApproveComment(context.Background(), parent.ID, false)
	require.NoError(t, err)
	assert.EqualValues(t, 1, result.AffectedCount)

	c, err := f.store.GetCommentByID(context.Background(), r1.ID)
	require.NoError(t, err)
	assert.Equal(t, consts.CommentStatusPending, c.Status)
}

func TestCommentService_DeleteWithoutCascadeReparentsReplies(t *testing.T) {
	f := newCommentFixture(t)
	parent, r1, r2, grand := f.thread(t, consts.CommentStatusApproved)
	ctx := context.Background()

	result, err := f.svc.DeleteComment(ctx, r1.ID, false)
	require.NoError(t, err)
	assert.EqualValues(t, 1, result.AffectedCount)
	assert.EqualValues(t, 0, result.DeletedRepliesCount)

	moved, err := f.store.GetCommentByID(ctx, grand.ID)
	require.NoError(t, err)
	require.NotNil(t, moved.ParentID)
	assert.Equal(t, parent.ID, *moved.ParentID)

	// 顶级评论被删除后，回复成为顶级
	_, err = f.svc.DeleteComment(ctx, parent.ID, false)
	require.NoError(t, err)
	for _, id := range []uint64{r2.ID, grand.ID} {
		c, err := f.store.GetCommentByID(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, c.ParentID)
	}
	assert.EqualValues(t, 2, f.count(t))
}

func TestCommentService_ModerateMissingComment(t *testing.T) {
	f := newCommentFixture(t)

	result, err := f.svc.DeleteComment(context.Background(), 999, true)
	require.NoError(t, err)
	assert.Equal(t, ResultError, result.Status)
	assert.Contains(t, result.Message, "999")
	assert.Empty(t, f.audit.logs)
}

func TestCommentService_StorageFailureRollsBack(t *testing.T) {
	f := newCommentFixture(t)
	parent, r1, _, grand := f.thread(t, consts.CommentStatusApproved)
	f.store.FailOn["DeleteComments"] = errors.New("db down")

	_, err := f.svc.DeleteComment(context.Background(), r1.ID, false)
	require.Error(t, err)

	c, err := f.store.GetCommentByID(context.Background(), grand.ID)
	require.NoError(t, err)
	require.NotNil(t, c.ParentID)
	assert.Equal(t, r1.ID, *c.ParentID)
	assert.NotEqual(t, parent.ID, *c.ParentID)
}

func TestCommentService_BatchDeletePartialFailure(t *testing.T) {
	f := newCommentFixture(t)
	a := f.add(t, nil, consts.CommentStatusApproved)
	b := f.add(t, nil, consts.CommentStatusApproved)

	result, err := f.svc.BatchDelete(context.Background(), []uint64{a.ID, 12345, b.ID}, true)
	require.NoError(t, err)

	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 1, result.FailureCount)
	require.Len(t, result.Results, 3)
	assert.Equal(t, ResultSuccess, result.Results[0].Status)
	assert.Equal(t, ResultError, result.Results[1].Status)
	assert.EqualValues(t, 12345, result.Results[1].ID)
	assert.Equal(t, ResultSuccess, result.Results[2].Status)
	assert.EqualValues(t, 0, f.count(t))
}

func TestCommentService_BatchStorageErrorIsReportedPerItem(t *testing.T) {
	f := newCommentFixture(t)
	a := f.add(t, nil, consts.CommentStatusPending)
	f.store.FailOn["UpdateCommentStatus"] = errors.New("db down")

	result, err := f.svc.BatchApprove(context.Background(), []uint64{a.ID}, false)
	require.NoError(t, err)
	assert.Equal(t, 0, result.SuccessCount)
	assert.Equal(t, 1, result.FailureCount)
	assert.Equal(t, UnExpectedError.Error(), result.Results[0].Message)
}

func TestCommentService_BatchRejectsEmptyIDs(t *testing.T) {
	f := newCommentFixture(t)

	_, err := f.svc.BatchApprove(context.Background(), nil, false)
	assert.ErrorIs(t, err, ErrParamInvalid)
}

func TestCommentService_CreateValidation(t *testing.T) {
	f := newCommentFixture(t)
	missing := uint64(777)

	cases := []struct {
		name string
		in   CreateCommentInput
		err  error
	}{
		{"empty content", CreateCommentInput{PostID: f.post.ID, AuthorName: "a", Content: "   "}, ErrCommentContentEmpty},
		{"too long", CreateCommentInput{PostID: f.post.ID, AuthorName: "a", Content: strings.Repeat("字", 201)}, ErrCommentContentTooLong},
		{"no author", CreateCommentInput{PostID: f.post.ID, Content: "hi"}, ErrCommentAuthorEmpty},
		{"bad email", CreateCommentInput{PostID: f.post.ID, AuthorName: "a", AuthorEmail: "nope", Content: "hi"}, ErrCommentEmailInvalid},
		{"bad status", CreateCommentInput{PostID: f.post.ID, AuthorName: "a", Content: "hi", Status: 9}, ErrParamInvalid},
		{"missing post", CreateCommentInput{PostID: 404, AuthorName: "a", Content: "hi"}, ErrPostNotFound},
		{"missing parent", CreateCommentInput{PostID: f.post.ID, ParentID: &missing, AuthorName: "a", Content: "hi"}, ErrCommentParentInvalid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := tc.in
			_, err := f.svc.CreateComment(context.Background(), &in)
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestCommentService_CreateStripsMarkup(t *testing.T) {
	f := newCommentFixture(t)

	c, err := f.svc.CreateComment(context.Background(), &CreateCommentInput{
		PostID:     f.post.ID,
		AuthorName: "<b>bob</b>",
		Content:    `hi <script>alert(1)</script>there`,
	})
	require.NoError(t, err)
	assert.NotContains(t, c.Content, "<script>")
	assert.NotContains(t, c.AuthorName, "<b>")
	assert.Equal(t, consts.CommentStatusPending, c.Status)
}

func TestCommentService_CreateKeepsPlainTextUnescaped(t *testing.T) {
	f := newCommentFixture(t)
	ctx := context.Background()

	c, err := f.svc.CreateComment(ctx, &CreateCommentInput{
		PostID:     f.post.ID,
		AuthorName: "O'Brien",
		Content:    `Tom & Jerry's "show" <script>alert(1)</script>`,
	})
	require.NoError(t, err)
	assert.Equal(t, "O'Brien", c.AuthorName)
	assert.Equal(t, `Tom & Jerry's "show"`, c.Content)

	// 长度按用户输入的字符计算，不受实体转义影响
	_, err = f.svc.CreateComment(ctx, &CreateCommentInput{
		PostID:     f.post.ID,
		AuthorName: "a",
		Content:    strings.Repeat("&", 60),
	})
	assert.NoError(t, err)
	_, err = f.svc.CreateComment(ctx, &CreateCommentInput{
		PostID:     f.post.ID,
		AuthorName: "a",
		Content:    strings.Repeat("<", 201),
	})
	assert.ErrorIs(t, err, ErrCommentContentTooLong)
}

func TestCommentService_CreateWithAnyStatus(t *testing.T) {
	f := newCommentFixture(t)

	for _, status := range []int8{consts.CommentStatusPending, consts.CommentStatusApproved, consts.CommentStatusRejected} {
		c := f.add(t, nil, status)
		assert.Equal(t, status, c.Status)
	}

	stats, err := f.svc.GetCommentStats(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.Pending)
	assert.EqualValues(t, 1, stats.Approved)
	assert.EqualValues(t, 1, stats.Rejected)
	assert.EqualValues(t, 3, stats.Total)
}

func TestCommentService_SubmitComment(t *testing.T) {
	t.Run("forces pending", func(t *testing.T) {
		f := newCommentFixture(t)
		c, err := f.svc.SubmitComment(context.Background(), &CreateCommentInput{
			PostID: f.post.ID, AuthorName: "a", Content: "hi", Status: consts.CommentStatusApproved, IP: "10.0.0.1",
		})
		require.NoError(t, err)
		assert.Equal(t, consts.CommentStatusPending, c.Status)
		assert.Equal(t, []string{"10.0.0.1"}, f.limiter.keys)
		assert.Empty(t, f.dirty.ids)
	})

	t.Run("rate limited", func(t *testing.T) {
		f := newCommentFixture(t)
		f.limiter.allow = false
		_, err := f.svc.SubmitComment(context.Background(), &CreateCommentInput{
			PostID: f.post.ID, AuthorName: "a", Content: "hi", IP: "10.0.0.1",
		})
		assert.ErrorIs(t, err, ErrCommentTooFrequent)
	})

	t.Run("limiter error lets request through", func(t *testing.T) {
		f := newCommentFixture(t)
		f.limiter.err = errors.New("redis down")
		_, err := f.svc.SubmitComment(context.Background(), &CreateCommentInput{
			PostID: f.post.ID, AuthorName: "a", Content: "hi", IP: "10.0.0.1",
		})
		assert.NoError(t, err)
	})

	t.Run("comments closed", func(t *testing.T) {
		f := newCommentFixture(t)
		f.post.AllowComment = false
		require.NoError(t, f.store.UpdatePost(context.Background(), f.post, nil))
		_, err := f.svc.SubmitComment(context.Background(), &CreateCommentInput{
			PostID: f.post.ID, AuthorName: "a", Content: "hi",
		})
		assert.ErrorIs(t, err, ErrPostCommentClosed)
	})

	t.Run("draft post", func(t *testing.T) {
		f := newCommentFixture(t)
		f.post.Status = consts.PostStatusDraft
		require.NoError(t, f.store.UpdatePost(context.Background(), f.post, nil))
		_, err := f.svc.SubmitComment(context.Background(), &CreateCommentInput{
			PostID: f.post.ID, AuthorName: "a", Content: "hi",
		})
		assert.ErrorIs(t, err, ErrPostNotFound)
	})
}

func TestCommentService_GetPostCommentsTree(t *testing.T) {
	f := newCommentFixture(t)
	ctx := context.Background()
	parent, r1, r2, grand := f.thread(t, consts.CommentStatusApproved)
	pending := f.add(t, nil, consts.CommentStatusPending)

	tree, err := f.svc.GetPostComments(ctx, f.post.ID)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Equal(t, parent.ID, tree[0].ID)
	require.Len(t, tree[0].Replies, 2)
	assert.Equal(t, r1.ID, tree[0].Replies[0].ID)
	assert.Equal(t, r2.ID, tree[0].Replies[1].ID)
	require.Len(t, tree[0].Replies[0].Replies, 1)
	assert.Equal(t, grand.ID, tree[0].Replies[0].Replies[0].ID)

	// 审核通过后缓存失效，新评论可见
	_, err = f.svc.ApproveComment(ctx, pending.ID, false)
	require.NoError(t, err)
	tree, err = f.svc.GetPostComments(ctx, f.post.ID)
	require.NoError(t, err)
	assert.Len(t, tree, 2)
}

func TestCommentService_GetPostCommentsPromotesOrphans(t *testing.T) {
	f := newCommentFixture(t)
	parent := f.add(t, nil, consts.CommentStatusPending)
	reply := f.add(t, &parent.ID, consts.CommentStatusApproved)

	tree, err := f.svc.GetPostComments(context.Background(), f.post.ID)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Equal(t, reply.ID, tree[0].ID)
	assert.Empty(t, tree[0].Replies)
}

func TestCommentService_StatsAndList(t *testing.T) {
	f := newCommentFixture(t)
	ctx := context.Background()
	f.thread(t, consts.CommentStatusApproved)
	f.add(t, nil, consts.CommentStatusPending)

	stats, err := f.svc.GetCommentStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, &CommentStats{Pending: 1, Approved: 4, Total: 5}, stats)

	pending := consts.CommentStatusPending
	page, err := f.svc.ListComments(ctx, &ListCommentsQuery{Status: &pending})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 10, page.PageSize)

	page, err = f.svc.ListComments(ctx, &ListCommentsQuery{TopLevelOnly: true, PageSize: 1000})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)
	assert.Equal(t, maxCommentPageSize, page.PageSize)
}

func TestCommentService_AuditLog(t *testing.T) {
	f := newCommentFixture(t)
	parent, _, _, _ := f.thread(t, consts.CommentStatusPending)
	ctx := WithOperator(context.Background(), 42)

	_, err := f.svc.RejectComment(ctx, parent.ID, true)
	require.NoError(t, err)

	logs, total, err := f.svc.ListModerationLogs(ctx, mongo.ModerationLogQuery{CommentID: parent.ID})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	entry := logs[0]
	assert.Equal(t, consts.ModerationReject, entry.Action)
	assert.EqualValues(t, 42, entry.OperatorID)
	assert.True(t, entry.Cascade)
	assert.EqualValues(t, 4, entry.Affected)
	assert.Equal(t, "nice post", entry.Snapshot.Content)
}

func TestCommentService_AuditFailureDoesNotFailModeration(t *testing.T) {
	f := newCommentFixture(t)
	c := f.add(t, nil, consts.CommentStatusPending)
	f.audit.err = errors.New("mongo down")

	result, err := f.svc.ApproveComment(context.Background(), c.ID, false)
	require.NoError(t, err)
	assert.Equal(t, ResultSuccess, result.Status)
}
