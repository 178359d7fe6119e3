// Package memory 提供仓储接口的内存实现，用于服务层测试与本地调试
package memory

import (
	"Inkwell/internal/model"
	"Inkwell/internal/pkg/consts"
	"Inkwell/internal/pkg/markdown"
	"Inkwell/internal/repository"
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
)

// ErrDuplicate 与 MySQL 唯一键冲突保持同一错误类型
var ErrDuplicate error = &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}

type txKey struct{}

// Store 同时实现 Post / Comment / Category / Tag 仓储与 Transactor
type Store struct {
	mu sync.RWMutex
	// txMu 串行化最外层事务，回滚不会覆盖其他事务已提交的写入
	txMu       sync.Mutex
	nextID     uint64
	posts      map[uint64]*model.Post
	postTags   map[uint64][]uint64
	comments   map[uint64]*model.Comment
	categories map[uint64]*model.Category
	tags       map[uint64]*model.Tag

	// FailOn 非空时，对应方法返回该错误，用于模拟存储故障
	FailOn map[string]error
}

func New() *Store {
	return &Store{
		posts:      make(map[uint64]*model.Post),
		postTags:   make(map[uint64][]uint64),
		comments:   make(map[uint64]*model.Comment),
		categories: make(map[uint64]*model.Category),
		tags:       make(map[uint64]*model.Tag),
		FailOn:     make(map[string]error),
	}
}

var (
	_ repository.PostRepo     = (*Store)(nil)
	_ repository.CommentRepo  = (*Store)(nil)
	_ repository.CategoryRepo = (*Store)(nil)
	_ repository.TagRepo      = (*Store)(nil)
	_ repository.Transactor   = (*Store)(nil)
)

func (s *Store) id() uint64 {
	s.nextID++
	return s.nextID
}

func (s *Store) fail(method string) error {
	return s.FailOn[method]
}

// === Transactor ===

type snapshot struct {
	nextID     uint64
	posts      map[uint64]*model.Post
	postTags   map[uint64][]uint64
	comments   map[uint64]*model.Comment
	categories map[uint64]*model.Category
	tags       map[uint64]*model.Tag
}

// Transaction fn 返回错误时整体回滚到进入前的快照
func (s *Store) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snap := s.snapshot()
	s.mu.RUnlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.mu.Lock()
		s.restore(snap)
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) snapshot() snapshot {
	snap := snapshot{
		nextID:     s.nextID,
		posts:      make(map[uint64]*model.Post, len(s.posts)),
		postTags:   make(map[uint64][]uint64, len(s.postTags)),
		comments:   make(map[uint64]*model.Comment, len(s.comments)),
		categories: make(map[uint64]*model.Category, len(s.categories)),
		tags:       make(map[uint64]*model.Tag, len(s.tags)),
	}
	for k, v := range s.posts {
		p := *v
		snap.posts[k] = &p
	}
	for k, v := range s.postTags {
		snap.postTags[k] = append([]uint64(nil), v...)
	}
	for k, v := range s.comments {
		c := *v
		snap.comments[k] = &c
	}
	for k, v := range s.categories {
		c := *v
		snap.categories[k] = &c
	}
	for k, v := range s.tags {
		t := *v
		snap.tags[k] = &t
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.nextID = snap.nextID
	s.posts = snap.posts
	s.postTags = snap.postTags
	s.comments = snap.comments
	s.categories = snap.categories
	s.tags = snap.tags
}

// === Comment ===

func (s *Store) CreateComment(_ context.Context, comment *model.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("CreateComment"); err != nil {
		return err
	}

	comment.ID = s.id()
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now()
	}
	comment.UpdatedAt = comment.CreatedAt
	c := *comment
	s.comments[c.ID] = &c
	return nil
}

func (s *Store) GetCommentByID(_ context.Context, id uint64) (*model.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fail("GetCommentByID"); err != nil {
		return nil, err
	}

	c, ok := s.comments[id]
	if !ok {
		return nil, nil
	}
	out := *c
	return &out, nil
}

func (s *Store) GetChildIDs(_ context.Context, parentIDs []uint64) ([]uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fail("GetChildIDs"); err != nil {
		return nil, err
	}

	parents := make(map[uint64]struct{}, len(parentIDs))
	for _, id := range parentIDs {
		parents[id] = struct{}{}
	}
	ids := make([]uint64, 0)
	for _, c := range s.comments {
		if c.ParentID == nil {
			continue
		}
		if _, ok := parents[*c.ParentID]; ok {
			ids = append(ids, c.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *Store) UpdateCommentStatus(_ context.Context, ids []uint64, status int8) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("UpdateCommentStatus"); err != nil {
		return 0, err
	}

	var affected int64
	for _, id := range ids {
		if c, ok := s.comments[id]; ok {
			c.Status = status
			c.UpdatedAt = time.Now()
			affected++
		}
	}
	return affected, nil
}

func (s *Store) DeleteComments(_ context.Context, ids []uint64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("DeleteComments"); err != nil {
		return 0, err
	}

	var affected int64
	for _, id := range ids {
		if _, ok := s.comments[id]; ok {
			delete(s.comments, id)
			affected++
		}
	}
	return affected, nil
}

func (s *Store) ReparentChildren(_ context.Context, parentID uint64, newParentID *uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("ReparentChildren"); err != nil {
		return err
	}

	for _, c := range s.comments {
		if c.ParentID != nil && *c.ParentID == parentID {
			if newParentID == nil {
				c.ParentID = nil
			} else {
				p := *newParentID
				c.ParentID = &p
			}
		}
	}
	return nil
}

func (s *Store) ListComments(_ context.Context, query repository.CommentQuery) ([]*model.Comment, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fail("ListComments"); err != nil {
		return nil, 0, err
	}

	matched := make([]*model.Comment, 0)
	for _, c := range s.comments {
		if query.PostID != nil && c.PostID != *query.PostID {
			continue
		}
		if query.Status != nil && c.Status != *query.Status {
			continue
		}
		if query.TopLevelOnly && c.ParentID != nil {
			continue
		}
		out := *c
		matched = append(matched, &out)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return paginate(matched, query.Page, query.PageSize), int64(len(matched)), nil
}

func (s *Store) CountByStatus(_ context.Context) (map[int8]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fail("CountByStatus"); err != nil {
		return nil, err
	}

	counts := make(map[int8]int64)
	for _, c := range s.comments {
		counts[c.Status]++
	}
	return counts, nil
}

func (s *Store) CountApprovedByPostID(_ context.Context, postID uint64) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, c := range s.comments {
		if c.PostID == postID && c.Status == consts.CommentStatusApproved {
			count++
		}
	}
	return count, nil
}

func (s *Store) GetApprovedByPostID(_ context.Context, postID uint64) ([]*model.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	comments := make([]*model.Comment, 0)
	for _, c := range s.comments {
		if c.PostID == postID && c.Status == consts.CommentStatusApproved {
			out := *c
			comments = append(comments, &out)
		}
	}
	sort.Slice(comments, func(i, j int) bool {
		if comments[i].CreatedAt.Equal(comments[j].CreatedAt) {
			return comments[i].ID < comments[j].ID
		}
		return comments[i].CreatedAt.Before(comments[j].CreatedAt)
	})
	return comments, nil
}

func (s *Store) DeleteCommentsByPostID(_ context.Context, postID uint64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var affected int64
	for id, c := range s.comments {
		if c.PostID == postID {
			delete(s.comments, id)
			affected++
		}
	}
	return affected, nil
}

// === Post ===

func (s *Store) CreatePost(_ context.Context, post *model.Post, tagIDs []uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("CreatePost"); err != nil {
		return err
	}

	for _, p := range s.posts {
		if p.Slug == post.Slug {
			return ErrDuplicate
		}
	}
	post.ID = s.id()
	now := time.Now()
	post.CreatedAt = now
	post.UpdatedAt = now
	p := *post
	p.Category = nil
	p.Tags = nil
	s.posts[p.ID] = &p
	s.postTags[p.ID] = append([]uint64(nil), tagIDs...)
	return nil
}

func (s *Store) UpdatePost(_ context.Context, post *model.Post, tagIDs []uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("UpdatePost"); err != nil {
		return err
	}

	old, ok := s.posts[post.ID]
	if !ok {
		return nil
	}
	for _, p := range s.posts {
		if p.ID != post.ID && p.Slug == post.Slug {
			return ErrDuplicate
		}
	}
	p := *post
	p.Category = nil
	p.Tags = nil
	p.UserID = old.UserID
	p.ViewCount = old.ViewCount
	p.CommentsCount = old.CommentsCount
	p.CreatedAt = old.CreatedAt
	p.UpdatedAt = time.Now()
	s.posts[p.ID] = &p
	s.postTags[p.ID] = append([]uint64(nil), tagIDs...)
	return nil
}

func (s *Store) UpdateRenderCache(_ context.Context, id uint64, html string, toc []*markdown.TocEntry, version int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("UpdateRenderCache"); err != nil {
		return err
	}

	if p, ok := s.posts[id]; ok {
		p.HTMLContent = html
		p.TOC = toc
		p.RenderVersion = version
	}
	return nil
}

func (s *Store) DeletePost(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("DeletePost"); err != nil {
		return err
	}

	delete(s.posts, id)
	delete(s.postTags, id)
	return nil
}

func (s *Store) GetPostByID(_ context.Context, id uint64) (*model.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fail("GetPostByID"); err != nil {
		return nil, err
	}

	p, ok := s.posts[id]
	if !ok {
		return nil, nil
	}
	return s.hydrate(p), nil
}

func (s *Store) GetPostBySlug(_ context.Context, slug string) (*model.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.posts {
		if p.Slug == slug {
			return s.hydrate(p), nil
		}
	}
	return nil, nil
}

func (s *Store) GetPostByIds(_ context.Context, ids []uint64) ([]*model.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	posts := make([]*model.Post, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.posts[id]; ok {
			posts = append(posts, s.hydrate(p))
		}
	}
	return posts, nil
}

func (s *Store) ListPosts(_ context.Context, query repository.PostQuery) ([]*model.Post, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fail("ListPosts"); err != nil {
		return nil, 0, err
	}

	matched := make([]*model.Post, 0)
	for _, p := range s.posts {
		if query.Status != nil && p.Status != *query.Status {
			continue
		}
		if query.CategoryID != nil && (p.CategoryID == nil || *p.CategoryID != *query.CategoryID) {
			continue
		}
		if query.TagID != nil && !containsID(s.postTags[p.ID], *query.TagID) {
			continue
		}
		if query.Keyword != "" && !strings.Contains(p.Title, query.Keyword) && !strings.Contains(p.Content, query.Keyword) {
			continue
		}
		matched = append(matched, s.hydrate(p))
	}
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if (a.PublishedAt == nil) != (b.PublishedAt == nil) {
			return a.PublishedAt == nil
		}
		if a.PublishedAt != nil && !a.PublishedAt.Equal(*b.PublishedAt) {
			return a.PublishedAt.After(*b.PublishedAt)
		}
		return a.ID > b.ID
	})
	return paginate(matched, query.Page, query.PageSize), int64(len(matched)), nil
}

func (s *Store) GetArchives(_ context.Context) ([]*repository.PostArchive, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type ym struct{ year, month int }
	buckets := make(map[ym]int64)
	for _, p := range s.posts {
		if p.Status != consts.PostStatusPublished || p.PublishedAt == nil {
			continue
		}
		buckets[ym{p.PublishedAt.Year(), int(p.PublishedAt.Month())}]++
	}
	archives := make([]*repository.PostArchive, 0, len(buckets))
	for k, v := range buckets {
		archives = append(archives, &repository.PostArchive{Year: k.year, Month: k.month, Count: v})
	}
	sort.Slice(archives, func(i, j int) bool {
		if archives[i].Year != archives[j].Year {
			return archives[i].Year > archives[j].Year
		}
		return archives[i].Month > archives[j].Month
	})
	return archives, nil
}

func (s *Store) GetStaleRenderPosts(_ context.Context, version int, limit int) ([]*model.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	posts := make([]*model.Post, 0)
	for _, p := range s.posts {
		if p.Content != "" && (p.HTMLContent == "" || p.RenderVersion < version) {
			posts = append(posts, s.hydrate(p))
		}
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].ID < posts[j].ID })
	if len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

func (s *Store) UpdateCommentsCount(_ context.Context, id uint64, count int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.posts[id]; ok {
		p.CommentsCount = count
	}
	return nil
}

func (s *Store) IncrViewCount(_ context.Context, id uint64, delta int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.posts[id]; ok {
		p.ViewCount += delta
	}
	return nil
}

func (s *Store) SlugExists(_ context.Context, slug string, excludeID uint64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.posts {
		if p.Slug == slug && p.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

// hydrate 复制文章并填充分类与标签，调用方需持有读锁
func (s *Store) hydrate(p *model.Post) *model.Post {
	out := *p
	if p.CategoryID != nil {
		if c, ok := s.categories[*p.CategoryID]; ok {
			cat := *c
			out.Category = &cat
		}
	}
	out.Tags = make([]model.Tag, 0, len(s.postTags[p.ID]))
	for _, tagID := range s.postTags[p.ID] {
		if t, ok := s.tags[tagID]; ok {
			out.Tags = append(out.Tags, *t)
		}
	}
	return &out
}

// === Category ===

func (s *Store) CreateCategory(_ context.Context, category *model.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.categories {
		if c.Name == category.Name || c.Slug == category.Slug {
			return ErrDuplicate
		}
	}
	category.ID = s.id()
	category.CreatedAt = time.Now()
	c := *category
	s.categories[c.ID] = &c
	return nil
}

func (s *Store) UpdateCategory(_ context.Context, category *model.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.categories[category.ID]
	if !ok {
		return nil
	}
	for _, c := range s.categories {
		if c.ID != category.ID && (c.Name == category.Name || c.Slug == category.Slug) {
			return ErrDuplicate
		}
	}
	old.Name = category.Name
	old.Slug = category.Slug
	old.Description = category.Description
	return nil
}

func (s *Store) DeleteCategory(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.posts {
		if p.CategoryID != nil && *p.CategoryID == id {
			p.CategoryID = nil
		}
	}
	delete(s.categories, id)
	return nil
}

func (s *Store) GetCategoryByID(_ context.Context, id uint64) (*model.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.categories[id]
	if !ok {
		return nil, nil
	}
	out := *c
	return &out, nil
}

func (s *Store) GetCategoryBySlug(_ context.Context, slug string) (*model.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.categories {
		if c.Slug == slug {
			out := *c
			return &out, nil
		}
	}
	return nil, nil
}

func (s *Store) ListCategories(_ context.Context) ([]*repository.CategoryWithCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*repository.CategoryWithCount, 0, len(s.categories))
	for _, c := range s.categories {
		item := &repository.CategoryWithCount{Category: *c}
		for _, p := range s.posts {
			if p.Status == consts.PostStatusPublished && p.CategoryID != nil && *p.CategoryID == c.ID {
				item.PostCount++
			}
		}
		list = append(list, item)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

// === Tag ===

func (s *Store) CreateTag(_ context.Context, tag *model.Tag) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.tags {
		if t.Name == tag.Name || t.Slug == tag.Slug {
			return ErrDuplicate
		}
	}
	tag.ID = s.id()
	tag.CreatedAt = time.Now()
	t := *tag
	s.tags[t.ID] = &t
	return nil
}

func (s *Store) UpdateTag(_ context.Context, tag *model.Tag) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.tags[tag.ID]
	if !ok {
		return nil
	}
	for _, t := range s.tags {
		if t.ID != tag.ID && (t.Name == tag.Name || t.Slug == tag.Slug) {
			return ErrDuplicate
		}
	}
	old.Name = tag.Name
	old.Slug = tag.Slug
	return nil
}

func (s *Store) DeleteTag(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for postID, tagIDs := range s.postTags {
		kept := tagIDs[:0]
		for _, tagID := range tagIDs {
			if tagID != id {
				kept = append(kept, tagID)
			}
		}
		s.postTags[postID] = kept
	}
	delete(s.tags, id)
	return nil
}

func (s *Store) GetTagByID(_ context.Context, id uint64) (*model.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tags[id]
	if !ok {
		return nil, nil
	}
	out := *t
	return &out, nil
}

func (s *Store) GetTagBySlug(_ context.Context, slug string) (*model.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.tags {
		if t.Slug == slug {
			out := *t
			return &out, nil
		}
	}
	return nil, nil
}

func (s *Store) GetOrCreateTags(_ context.Context, tagNames []string) ([]*model.Tag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tags := make([]*model.Tag, 0, len(tagNames))
	for _, name := range tagNames {
		var found *model.Tag
		for _, t := range s.tags {
			if t.Name == name {
				found = t
				break
			}
		}
		if found == nil {
			found = &model.Tag{ID: s.id(), Name: name, Slug: markdown.Slugify(name), CreatedAt: time.Now()}
			s.tags[found.ID] = found
		}
		out := *found
		tags = append(tags, &out)
	}
	return tags, nil
}

func (s *Store) ListTags(_ context.Context) ([]*repository.TagWithCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*repository.TagWithCount, 0, len(s.tags))
	for _, t := range s.tags {
		item := &repository.TagWithCount{Tag: *t}
		for postID, tagIDs := range s.postTags {
			p, ok := s.posts[postID]
			if ok && p.Status == consts.PostStatusPublished && containsID(tagIDs, t.ID) {
				item.PostCount++
			}
		}
		list = append(list, item)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

// === helpers ===

func containsID(ids []uint64, id uint64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func paginate[T any](items []T, page, pageSize int) []T {
	if pageSize <= 0 {
		return items
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start >= len(items) {
		return []T{}
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
