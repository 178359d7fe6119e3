package kafka

import (
	"Inkwell/internal/model"
	"Inkwell/internal/pkg/consts"
	"Inkwell/internal/pkg/es"
	"Inkwell/internal/repository/memory"
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePostES struct {
	docs     map[uint64]*es.PostES
	versions map[uint64]int64
	deleted  []uint64
}

func newFakePostES() *fakePostES {
	return &fakePostES{docs: map[uint64]*es.PostES{}, versions: map[uint64]int64{}}
}

func (f *fakePostES) EnsureIndex(context.Context) error { return nil }

func (f *fakePostES) Search(context.Context, string, int, int) ([]*es.PostES, int64, error) {
	return nil, 0, nil
}

func (f *fakePostES) IndexPost(_ context.Context, post *es.PostES, version int64) error {
	f.docs[post.ID] = post
	f.versions[post.ID] = version
	return nil
}

func (f *fakePostES) DeletePost(_ context.Context, id uint64) error {
	delete(f.docs, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func canalMessage(t *testing.T, m CanalMessage) *sarama.ConsumerMessage {
	t.Helper()
	b, err := json.Marshal(m)
	require.NoError(t, err)
	return &sarama.ConsumerMessage{Topic: "canal_inkwell_posts", Value: b}
}

func TestToPostES(t *testing.T) {
	row := map[string]interface{}{
		"id":           "42",
		"title":        "Hello",
		"slug":         "hello",
		"summary":      "sum",
		"html_content": "<h1 id=\"header-hello\">Hello</h1>\n<p>a <b>b</b></p>",
		"category_id":  nil,
		"status":       "1",
		"published_at": "2024-03-09 10:00:00",
		"updated_at":   "2024-03-09 11:30:00.123",
	}

	doc := ToPostES(row)
	assert.Equal(t, uint64(42), doc.ID)
	assert.Equal(t, "Hello a b", doc.PlainContent)
	assert.Nil(t, doc.CategoryID)
	assert.Equal(t, consts.PostStatusPublished, doc.Status)
	require.NotNil(t, doc.PublishedAt)
	assert.Equal(t, time.Date(2024, 3, 9, 10, 0, 0, 0, time.Local), *doc.PublishedAt)
	assert.Equal(t, 123*time.Millisecond, time.Duration(doc.UpdatedAt.Nanosecond()))

	row["category_id"] = "7"
	require.NotNil(t, ToPostES(row).CategoryID)
	assert.Equal(t, uint64(7), *ToPostES(row).CategoryID)
}

func TestPostsHandler_IndexPublishedPostWithTags(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	tags, err := store.GetOrCreateTags(ctx, []string{"Go", "Blog"})
	require.NoError(t, err)
	post := &model.Post{Title: "Hello", Slug: "hello", Status: consts.PostStatusPublished}
	require.NoError(t, store.CreatePost(ctx, post, []uint64{tags[0].ID, tags[1].ID}))

	sink := newFakePostES()
	h := NewPostsHandler(store, sink)

	msg := canalMessage(t, CanalMessage{
		Table: "posts",
		Type:  INSERT,
		TS:    1700000000000,
		Data: []map[string]interface{}{{
			"id":           strconv.FormatUint(post.ID, 10),
			"title":        "Hello",
			"html_content": "<p>body</p>",
			"status":       "1",
		}},
	})

	require.NoError(t, h.logic(ctx, msg))
	doc := sink.docs[post.ID]
	require.NotNil(t, doc)
	assert.ElementsMatch(t, []string{"Go", "Blog"}, doc.Tags)
	assert.Equal(t, "body", doc.PlainContent)
	assert.Equal(t, int64(1700000000000), sink.versions[post.ID])
}

func TestPostsHandler_UnpublishAndDeleteRemoveDocument(t *testing.T) {
	ctx := context.Background()
	sink := newFakePostES()
	sink.docs[5] = &es.PostES{ID: 5}
	sink.docs[6] = &es.PostES{ID: 6}
	h := NewPostsHandler(memory.New(), sink)

	draft := canalMessage(t, CanalMessage{
		Table: "posts", Type: UPDATE,
		Data: []map[string]interface{}{{"id": "5", "status": "0"}},
		Old:  []map[string]interface{}{{"status": "1"}},
	})
	require.NoError(t, h.logic(ctx, draft))

	deleted := canalMessage(t, CanalMessage{
		Table: "posts", Type: DELETE,
		Data: []map[string]interface{}{{"id": "6", "status": "1"}},
	})
	require.NoError(t, h.logic(ctx, deleted))

	assert.Empty(t, sink.docs)
	assert.Equal(t, []uint64{5, 6}, sink.deleted)
}

func TestPostsHandler_SkipsUnrelatedMessages(t *testing.T) {
	ctx := context.Background()
	sink := newFakePostES()
	h := NewPostsHandler(memory.New(), sink)

	other := canalMessage(t, CanalMessage{Table: "comments", Type: INSERT, Data: []map[string]interface{}{{"id": "1"}}})
	assert.ErrorIs(t, h.logic(ctx, other), ErrSkipMessage)

	broken := &sarama.ConsumerMessage{Value: []byte("{not json")}
	assert.ErrorIs(t, h.logic(ctx, broken), ErrSkipMessage)

	// 只改了浏览量，不重建文档
	counter := canalMessage(t, CanalMessage{
		Table: "posts", Type: UPDATE,
		Data: []map[string]interface{}{{"id": "9", "status": "1"}},
		Old:  []map[string]interface{}{{"view_count": "3"}},
	})
	require.NoError(t, h.logic(ctx, counter))
	assert.Empty(t, sink.docs)
	assert.Empty(t, sink.deleted)
}
