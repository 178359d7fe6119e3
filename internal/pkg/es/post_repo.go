package es

import (
	"Inkwell/internal/pkg/consts"
	"context"
	"strconv"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types/enums/versiontype"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// MaxSearchDepth 超过该深度的分页直接返回空
const MaxSearchDepth = 1000

type PostRepo interface {
	EnsureIndex(ctx context.Context) error
	Search(ctx context.Context, keyword string, from, size int) ([]*PostES, int64, error)
	IndexPost(ctx context.Context, post *PostES, version int64) error
	DeletePost(ctx context.Context, id uint64) error
}

type PostRepoImpl struct {
	client *elasticsearch.TypedClient
}

func NewPostRepo(client *elasticsearch.TypedClient) PostRepo {
	return &PostRepoImpl{client: client}
}

// EnsureIndex 索引不存在时按固定 mapping 创建
func (s *PostRepoImpl) EnsureIndex(ctx context.Context) error {
	exists, err := s.client.Indices.Exists(PostIndex).Do(ctx)
	if err != nil {
		return errors.Wrap(err, "check post index")
	}
	if exists {
		return nil
	}

	_, err = s.client.Indices.Create(PostIndex).
		Mappings(&types.TypeMapping{
			Properties: map[string]types.Property{
				"id":            types.NewLongNumberProperty(),
				"title":         types.NewTextProperty(),
				"slug":          types.NewKeywordProperty(),
				"summary":       types.NewTextProperty(),
				"plain_content": types.NewTextProperty(),
				"category_id":   types.NewLongNumberProperty(),
				"tags":          types.NewKeywordProperty(),
				"status":        types.NewByteNumberProperty(),
				"published_at":  types.NewDateProperty(),
				"updated_at":    types.NewDateProperty(),
			},
		}).
		Do(ctx)
	if err != nil {
		return errors.Wrap(err, "create post index")
	}
	return nil
}

// Search 标题权重最高，只检索已发布文章
func (s *PostRepoImpl) Search(ctx context.Context, keyword string, from, size int) ([]*PostES, int64, error) {
	if from >= MaxSearchDepth {
		return []*PostES{}, 0, nil
	}

	res, err := s.client.Search().
		Index(PostIndex).
		From(from).
		Size(size).
		Query(&types.Query{
			Bool: &types.BoolQuery{
				Must: []types.Query{{
					MultiMatch: &types.MultiMatchQuery{
						Query:  keyword,
						Fields: []string{"title^3", "summary^2", "tags^2", "plain_content"},
					},
				}},
				Filter: []types.Query{{
					Term: map[string]types.TermQuery{
						"status": {Value: consts.PostStatusPublished},
					},
				}},
			},
		}).
		Do(ctx)
	if err != nil {
		return nil, 0, errors.Wrap(err, "search posts")
	}

	posts := make([]*PostES, 0, len(res.Hits.Hits))
	for _, hit := range res.Hits.Hits {
		var post PostES
		if err = json.Unmarshal(hit.Source_, &post); err != nil {
			return nil, 0, errors.Wrap(err, "decode post hit")
		}
		posts = append(posts, &post)
	}

	var total int64
	if res.Hits.Total != nil {
		total = res.Hits.Total.Value
	}
	return posts, total, nil
}

// IndexPost 使用外部版本号，旧版本的消息不会覆盖新文档
func (s *PostRepoImpl) IndexPost(ctx context.Context, post *PostES, version int64) error {
	_, err := s.client.Index(PostIndex).
		Id(strconv.FormatUint(post.ID, 10)).
		Document(post).
		Version(strconv.FormatInt(version, 10)).
		VersionType(versiontype.External).
		Do(ctx)
	if err != nil {
		var e *types.ElasticsearchError
		if errors.As(err, &e) && e.Status == ConflictCode {
			return nil
		}
		return err
	}
	return nil
}

func (s *PostRepoImpl) DeletePost(ctx context.Context, id uint64) error {
	_, err := s.client.Delete(PostIndex, strconv.FormatUint(id, 10)).Do(ctx)
	if err != nil {
		var e *types.ElasticsearchError
		if errors.As(err, &e) && e.Status == NotFoundCode {
			return nil
		}
		return err
	}
	return nil
}
