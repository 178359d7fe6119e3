package service

import (
	"Inkwell/internal/api/dto"
	"Inkwell/internal/model"
	"Inkwell/internal/pkg/cache"
	"Inkwell/internal/pkg/consts"
	"Inkwell/internal/pkg/es"
	"Inkwell/internal/pkg/markdown"
	"Inkwell/internal/repository"
	"context"
	log "log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	maxPostPageSize = 50
	summaryLength   = 200
)

// ViewCounter 阅读数先累计在 redis，由定时任务回写
type ViewCounter interface {
	Incr(ctx context.Context, id uint64) error
}

type PostService interface {
	CreatePost(ctx context.Context, userID uint64, in *dto.PostBaseDTO) (*dto.PostDTO, error)
	UpdatePost(ctx context.Context, postID uint64, in *dto.PostBaseDTO) (*dto.PostDTO, error)
	DeletePost(ctx context.Context, postID uint64) error
	RenderPost(ctx context.Context, postID uint64) (*dto.PostDTO, error)
	GetPostByID(ctx context.Context, postID uint64) (*dto.PostDTO, error)
	GetPostBySlug(ctx context.Context, slug string) (*dto.PostDTO, error)
	ResolvePublishedSlug(ctx context.Context, slug string) (uint64, error)
	ListPosts(ctx context.Context, query *dto.PostListQueryDTO, admin bool) (*dto.PageDTO[*dto.PostListItemDTO], error)
	SearchPosts(ctx context.Context, keyword string, page, pageSize int) (*dto.PageDTO[*dto.PostListItemDTO], error)
	GetArchives(ctx context.Context) ([]*repository.PostArchive, error)
	RebuildStaleRenders(ctx context.Context, limit int) (int, error)
	SyncCommentsCount(ctx context.Context, postID uint64) error
	AddViewCount(ctx context.Context, postID uint64, delta int64) error
}

type postServiceImpl struct {
	postRepo     repository.PostRepo
	categoryRepo repository.CategoryRepo
	tagRepo      repository.TagRepo
	commentRepo  repository.CommentRepo
	transactor   repository.Transactor
	postESRepo   es.PostRepo
	cache        cache.Cache
	views        ViewCounter
	renderer     *markdown.Renderer
}

// NewPostService postESRepo / views 可为 nil，搜索回退到数据库
func NewPostService(
	postRepo repository.PostRepo,
	categoryRepo repository.CategoryRepo,
	tagRepo repository.TagRepo,
	commentRepo repository.CommentRepo,
	transactor repository.Transactor,
	postESRepo es.PostRepo,
	cache cache.Cache,
	views ViewCounter,
) PostService {
	return &postServiceImpl{
		postRepo:     postRepo,
		categoryRepo: categoryRepo,
		tagRepo:      tagRepo,
		commentRepo:  commentRepo,
		transactor:   transactor,
		postESRepo:   postESRepo,
		cache:        cache,
		views:        views,
		renderer:     markdown.NewRenderer(),
	}
}

func (s *postServiceImpl) CreatePost(ctx context.Context, userID uint64, in *dto.PostBaseDTO) (*dto.PostDTO, error) {
	post := &model.Post{
		UserID:       userID,
		AllowComment: true,
	}
	if err := s.applyInput(ctx, post, in); err != nil {
		return nil, err
	}
	s.render(post)

	tagIDs, err := s.resolveTags(ctx, in.Tags)
	if err != nil {
		return nil, err
	}
	if err = s.postRepo.CreatePost(ctx, post, tagIDs); err != nil {
		if isDuplicateError(err) {
			return nil, ErrPostSlugExist
		}
		return nil, err
	}
	s.invalidate(ctx, post.ID, post.Slug)

	created, err := s.postRepo.GetPostByID(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, ErrPostNotFound
	}
	return toPostDTO(created), nil
}

// UpdatePost 正文变化或渲染缓存过期时重新渲染
func (s *postServiceImpl) UpdatePost(ctx context.Context, postID uint64, in *dto.PostBaseDTO) (*dto.PostDTO, error) {
	post, err := s.postRepo.GetPostByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}

	oldSlug := post.Slug
	oldContent := post.Content
	if err = s.applyInput(ctx, post, in); err != nil {
		return nil, err
	}
	if post.Content != oldContent || post.RenderStale() {
		s.render(post)
	}

	tagIDs, err := s.resolveTags(ctx, in.Tags)
	if err != nil {
		return nil, err
	}
	if err = s.postRepo.UpdatePost(ctx, post, tagIDs); err != nil {
		if isDuplicateError(err) {
			return nil, ErrPostSlugExist
		}
		return nil, err
	}
	s.invalidate(ctx, post.ID, oldSlug, post.Slug)

	updated, err := s.postRepo.GetPostByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrPostNotFound
	}
	return toPostDTO(updated), nil
}

// DeletePost 评论随文章一起删除
func (s *postServiceImpl) DeletePost(ctx context.Context, postID uint64) error {
	post, err := s.postRepo.GetPostByID(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil {
		return ErrPostNotFound
	}

	err = s.transactor.Transaction(ctx, func(ctx context.Context) error {
		if _, err := s.commentRepo.DeleteCommentsByPostID(ctx, postID); err != nil {
			return err
		}
		return s.postRepo.DeletePost(ctx, postID)
	})
	if err != nil {
		return err
	}

	if s.postESRepo != nil {
		if err = s.postESRepo.DeletePost(ctx, postID); err != nil {
			log.WarnContext(ctx, "delete post from es failed", "post_id", postID, "err", err)
		}
	}
	s.invalidate(ctx, postID, post.Slug)
	_ = s.cache.Delete(ctx, consts.PostCommentsCacheKey+strconv.FormatUint(postID, 10))
	return nil
}

// RenderPost 强制重新渲染
func (s *postServiceImpl) RenderPost(ctx context.Context, postID uint64) (*dto.PostDTO, error) {
	post, err := s.postRepo.GetPostByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	s.render(post)
	if err = s.postRepo.UpdateRenderCache(ctx, post.ID, post.HTMLContent, post.TOC, post.RenderVersion); err != nil {
		return nil, err
	}
	s.invalidate(ctx, post.ID, post.Slug)
	return toPostDTO(post), nil
}

// GetPostByID 后台查看，包含草稿与 Markdown 原文
func (s *postServiceImpl) GetPostByID(ctx context.Context, postID uint64) (*dto.PostDTO, error) {
	post, err := s.postRepo.GetPostByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	s.ensureRendered(ctx, post)
	return toPostDTO(post), nil
}

// GetPostBySlug 前台详情，只返回已发布文章并累计阅读数
func (s *postServiceImpl) GetPostBySlug(ctx context.Context, slug string) (*dto.PostDTO, error) {
	postDTO, err := s.getPublishedBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if s.views != nil {
		if err = s.views.Incr(ctx, postDTO.ID); err != nil {
			log.WarnContext(ctx, "incr post view failed", "post_id", postDTO.ID, "err", err)
		}
	}
	return postDTO, nil
}

// ResolvePublishedSlug 评论区等只需要文章 ID 的场景，不计阅读数
func (s *postServiceImpl) ResolvePublishedSlug(ctx context.Context, slug string) (uint64, error) {
	postDTO, err := s.getPublishedBySlug(ctx, slug)
	if err != nil {
		return 0, err
	}
	return postDTO.ID, nil
}

func (s *postServiceImpl) getPublishedBySlug(ctx context.Context, slug string) (*dto.PostDTO, error) {
	var postID uint64
	if ok, _ := s.cache.Get(ctx, consts.PostSlugCacheKey+slug, &postID); ok {
		var cached dto.PostDTO
		key := consts.PostDetailCacheKey + strconv.FormatUint(postID, 10)
		if ok, _ = s.cache.Get(ctx, key, &cached); ok {
			return &cached, nil
		}
	}

	post, err := s.postRepo.GetPostBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if post == nil || post.Status != consts.PostStatusPublished {
		return nil, ErrPostNotFound
	}
	s.ensureRendered(ctx, post)

	postDTO := toPostDTO(post)
	postDTO.Content = ""
	key := consts.PostDetailCacheKey + strconv.FormatUint(post.ID, 10)
	if err = s.cache.Set(ctx, key, postDTO, 0); err != nil {
		log.WarnContext(ctx, "cache post detail failed", "post_id", post.ID, "err", err)
	}
	_ = s.cache.Set(ctx, consts.PostSlugCacheKey+slug, post.ID, 0)
	return postDTO, nil
}

func (s *postServiceImpl) ListPosts(ctx context.Context, query *dto.PostListQueryDTO, admin bool) (*dto.PageDTO[*dto.PostListItemDTO], error) {
	page, pageSize := normalizePage(query.Page, query.PageSize, maxPostPageSize)
	empty := &dto.PageDTO[*dto.PostListItemDTO]{List: []*dto.PostListItemDTO{}, Page: page, PageSize: pageSize}

	repoQuery := repository.PostQuery{
		Keyword:  strings.TrimSpace(query.Keyword),
		Page:     page,
		PageSize: pageSize,
	}
	if admin {
		repoQuery.Status = query.Status
	} else {
		published := consts.PostStatusPublished
		repoQuery.Status = &published
	}
	if query.Category != "" {
		category, err := s.categoryRepo.GetCategoryBySlug(ctx, query.Category)
		if err != nil {
			return nil, err
		}
		if category == nil {
			return empty, nil
		}
		repoQuery.CategoryID = &category.ID
	}
	if query.Tag != "" {
		tag, err := s.tagRepo.GetTagBySlug(ctx, query.Tag)
		if err != nil {
			return nil, err
		}
		if tag == nil {
			return empty, nil
		}
		repoQuery.TagID = &tag.ID
	}

	posts, total, err := s.postRepo.ListPosts(ctx, repoQuery)
	if err != nil {
		return nil, err
	}
	return &dto.PageDTO[*dto.PostListItemDTO]{
		List:     toPostListItems(posts),
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// SearchPosts 优先走 ES，不可用时回退到数据库 LIKE
func (s *postServiceImpl) SearchPosts(ctx context.Context, keyword string, page, pageSize int) (*dto.PageDTO[*dto.PostListItemDTO], error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, ErrParamInvalid
	}
	page, pageSize = normalizePage(page, pageSize, maxPostPageSize)

	if s.postESRepo != nil {
		hits, total, err := s.postESRepo.Search(ctx, keyword, (page-1)*pageSize, pageSize)
		if err == nil {
			return s.hydrateSearchHits(ctx, hits, total, page, pageSize)
		}
		log.WarnContext(ctx, "es search failed, fallback to db", "keyword", keyword, "err", err)
	}

	return s.ListPosts(ctx, &dto.PostListQueryDTO{Keyword: keyword, Page: page, PageSize: pageSize}, false)
}

// hydrateSearchHits 以数据库为准补全列表项，保持 ES 的相关度顺序
func (s *postServiceImpl) hydrateSearchHits(ctx context.Context, hits []*es.PostES, total int64, page, pageSize int) (*dto.PageDTO[*dto.PostListItemDTO], error) {
	ids := make([]uint64, 0, len(hits))
	for _, hit := range hits {
		ids = append(ids, hit.ID)
	}
	posts, err := s.postRepo.GetPostByIds(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint64]*model.Post, len(posts))
	for _, p := range posts {
		byID[p.ID] = p
	}
	ordered := make([]*model.Post, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok && p.Status == consts.PostStatusPublished {
			ordered = append(ordered, p)
		}
	}
	return &dto.PageDTO[*dto.PostListItemDTO]{
		List:     toPostListItems(ordered),
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

func (s *postServiceImpl) GetArchives(ctx context.Context) ([]*repository.PostArchive, error) {
	var cached []*repository.PostArchive
	if ok, _ := s.cache.Get(ctx, consts.PostArchivesCacheKey, &cached); ok {
		return cached, nil
	}
	archives, err := s.postRepo.GetArchives(ctx)
	if err != nil {
		return nil, err
	}
	if err = s.cache.Set(ctx, consts.PostArchivesCacheKey, archives, 0); err != nil {
		log.WarnContext(ctx, "cache archives failed", "err", err)
	}
	return archives, nil
}

// RebuildStaleRenders 重新渲染一批过期文章，返回成功数量
func (s *postServiceImpl) RebuildStaleRenders(ctx context.Context, limit int) (int, error) {
	posts, err := s.postRepo.GetStaleRenderPosts(ctx, markdown.Version, limit)
	if err != nil {
		return 0, err
	}
	rebuilt := 0
	for _, post := range posts {
		if err = ctx.Err(); err != nil {
			return rebuilt, err
		}
		s.render(post)
		if err = s.postRepo.UpdateRenderCache(ctx, post.ID, post.HTMLContent, post.TOC, post.RenderVersion); err != nil {
			log.ErrorContext(ctx, "update render cache failed", "post_id", post.ID, "err", err)
			continue
		}
		s.invalidate(ctx, post.ID, post.Slug)
		rebuilt++
	}
	return rebuilt, nil
}

func (s *postServiceImpl) SyncCommentsCount(ctx context.Context, postID uint64) error {
	count, err := s.commentRepo.CountApprovedByPostID(ctx, postID)
	if err != nil {
		return err
	}
	if err = s.postRepo.UpdateCommentsCount(ctx, postID, count); err != nil {
		return err
	}
	return s.cache.Delete(ctx, consts.PostDetailCacheKey+strconv.FormatUint(postID, 10))
}

func (s *postServiceImpl) AddViewCount(ctx context.Context, postID uint64, delta int64) error {
	if delta <= 0 {
		return nil
	}
	return s.postRepo.IncrViewCount(ctx, postID, delta)
}

// applyInput 校验并写入可编辑字段
func (s *postServiceImpl) applyInput(ctx context.Context, post *model.Post, in *dto.PostBaseDTO) error {
	title := strings.TrimSpace(in.Title)
	if title == "" || strings.TrimSpace(in.Content) == "" {
		return ErrParamInvalid
	}
	if in.Status != consts.PostStatusDraft && in.Status != consts.PostStatusPublished {
		return ErrParamInvalid
	}

	slug := markdown.Slugify(in.Slug)
	if slug == "" {
		slug = markdown.Slugify(title)
	}
	if slug == "" {
		slug = "post-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	}
	exists, err := s.postRepo.SlugExists(ctx, slug, post.ID)
	if err != nil {
		return err
	}
	if exists {
		return ErrPostSlugExist
	}

	if in.CategoryID != nil {
		category, err := s.categoryRepo.GetCategoryByID(ctx, *in.CategoryID)
		if err != nil {
			return err
		}
		if category == nil {
			return ErrCategoryNotFound
		}
	}

	post.Title = title
	post.Slug = slug
	post.Content = in.Content
	post.Summary = strings.TrimSpace(in.Summary)
	post.CategoryID = in.CategoryID
	post.Status = in.Status
	if in.AllowComment != nil {
		post.AllowComment = *in.AllowComment
	}
	if post.Status == consts.PostStatusPublished && post.PublishedAt == nil {
		now := time.Now()
		post.PublishedAt = &now
	}
	return nil
}

func (s *postServiceImpl) render(post *model.Post) {
	result := s.renderer.Render(post.Content)
	post.HTMLContent = result.HTML
	post.TOC = result.TOC
	post.RenderVersion = markdown.Version
	if post.Summary == "" {
		post.Summary = markdown.Excerpt(result.HTML, summaryLength)
	}
}

// ensureRendered 读时补渲染，回写失败不影响本次返回
func (s *postServiceImpl) ensureRendered(ctx context.Context, post *model.Post) {
	if !post.RenderStale() {
		return
	}
	s.render(post)
	if err := s.postRepo.UpdateRenderCache(ctx, post.ID, post.HTMLContent, post.TOC, post.RenderVersion); err != nil {
		log.WarnContext(ctx, "write back render cache failed", "post_id", post.ID, "err", err)
	}
}

func (s *postServiceImpl) resolveTags(ctx context.Context, names []string) ([]uint64, error) {
	seen := make(map[string]struct{}, len(names))
	cleaned := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		cleaned = append(cleaned, name)
	}
	if len(cleaned) == 0 {
		return nil, nil
	}
	tags, err := s.tagRepo.GetOrCreateTags(ctx, cleaned)
	if err != nil {
		return nil, err
	}
	ids := make([]uint64, 0, len(tags))
	for _, tag := range tags {
		ids = append(ids, tag.ID)
	}
	return ids, nil
}

func (s *postServiceImpl) invalidate(ctx context.Context, postID uint64, slugs ...string) {
	keys := []string{consts.PostDetailCacheKey + strconv.FormatUint(postID, 10), consts.PostArchivesCacheKey}
	for _, slug := range slugs {
		keys = append(keys, consts.PostSlugCacheKey+slug)
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		log.WarnContext(ctx, "invalidate post cache failed", "post_id", postID, "err", err)
	}
}

func toPostDTO(post *model.Post) *dto.PostDTO {
	toc := post.TOC
	if toc == nil {
		toc = []*markdown.TocEntry{}
	}
	return &dto.PostDTO{
		ID:            post.ID,
		UserID:        post.UserID,
		Title:         post.Title,
		Slug:          post.Slug,
		Summary:       post.Summary,
		Content:       post.Content,
		HTML:          post.HTMLContent,
		TOC:           toc,
		Status:        post.Status,
		AllowComment:  post.AllowComment,
		ViewCount:     post.ViewCount,
		CommentsCount: post.CommentsCount,
		Category:      toCategoryBrief(post.Category),
		Tags:          toTagBriefs(post.Tags),
		PublishedAt:   post.PublishedAt,
		CreatedAt:     post.CreatedAt,
		UpdatedAt:     post.UpdatedAt,
	}
}

func toPostListItems(posts []*model.Post) []*dto.PostListItemDTO {
	items := make([]*dto.PostListItemDTO, 0, len(posts))
	for _, post := range posts {
		items = append(items, &dto.PostListItemDTO{
			ID:            post.ID,
			Title:         post.Title,
			Slug:          post.Slug,
			Summary:       post.Summary,
			Status:        post.Status,
			ViewCount:     post.ViewCount,
			CommentsCount: post.CommentsCount,
			Category:      toCategoryBrief(post.Category),
			Tags:          toTagBriefs(post.Tags),
			PublishedAt:   post.PublishedAt,
			UpdatedAt:     post.UpdatedAt,
		})
	}
	return items
}

func toCategoryBrief(category *model.Category) *dto.CategoryBriefDTO {
	if category == nil {
		return nil
	}
	return &dto.CategoryBriefDTO{ID: category.ID, Name: category.Name, Slug: category.Slug}
}

func toTagBriefs(tags []model.Tag) []*dto.TagBriefDTO {
	briefs := make([]*dto.TagBriefDTO, 0, len(tags))
	for _, tag := range tags {
		briefs = append(briefs, &dto.TagBriefDTO{ID: tag.ID, Name: tag.Name, Slug: tag.Slug})
	}
	return briefs
}
