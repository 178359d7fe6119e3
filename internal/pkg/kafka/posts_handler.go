package kafka

import (
	"Inkwell/internal/model"
	"Inkwell/internal/pkg/consts"
	"Inkwell/internal/pkg/es"
	"Inkwell/internal/pkg/markdown"
	"context"
	log "log/slog"

	"github.com/IBM/sarama"
)

// PostSource 读取文章的标签，posts 表的 binlog 里没有关联数据
type PostSource interface {
	GetPostByID(ctx context.Context, id uint64) (*model.Post, error)
}

// PostsHandler 把 posts 表的变更同步到 ES
type PostsHandler struct {
	postDBRepo PostSource
	postESRepo es.PostRepo
}

func NewPostsHandler(postDBRepo PostSource, postESRepo es.PostRepo) *PostsHandler {
	return &PostsHandler{
		postDBRepo: postDBRepo,
		postESRepo: postESRepo,
	}
}

func (s *PostsHandler) Setup(sarama.ConsumerGroupSession) error {
	log.Info("post consumer setup")
	return nil
}

func (s *PostsHandler) Cleanup(sarama.ConsumerGroupSession) error {
	log.Info("post consumer cleanup")
	return nil
}

func (s *PostsHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	log.Info("topic-post consume claim")
	err := pullMessageBatch(session, claim, s.logic)
	if err != nil {
		log.Error("topic-post process batch error", "err", err)
		return err
	}
	log.Info("topic-post consume claim end")
	return nil
}

func (s *PostsHandler) logic(ctx context.Context, msg *sarama.ConsumerMessage) error {
	canalMsg, err := ToCanalMessage(msg, "posts")
	if err != nil {
		return err
	}

	for _, row := range canalMsg.Data {
		if err = s.syncRow(ctx, canalMsg, row); err != nil {
			return err
		}
	}
	return nil
}

// syncRow 已发布的文章写入索引，删除或撤回的文章从索引移除
func (s *PostsHandler) syncRow(ctx context.Context, canalMsg *CanalMessage, row map[string]interface{}) error {
	doc := ToPostES(row)
	if doc.ID == 0 {
		return nil
	}

	if canalMsg.Type == DELETE || doc.Status != consts.PostStatusPublished {
		return s.postESRepo.DeletePost(ctx, doc.ID)
	}

	// 只有渲染内容或元数据变化才需要重建文档
	if canalMsg.Type == UPDATE && !documentChanged(canalMsg) {
		return nil
	}

	post, err := s.postDBRepo.GetPostByID(ctx, doc.ID)
	if err != nil {
		return err
	}
	if post == nil {
		// 消息落后于删除
		return s.postESRepo.DeletePost(ctx, doc.ID)
	}
	for _, tag := range post.Tags {
		doc.Tags = append(doc.Tags, tag.Name)
	}

	return s.postESRepo.IndexPost(ctx, doc, canalMsg.TS)
}

// ToPostES canal 行转换为 ES 文档，正文取渲染后 HTML 的纯文本
func ToPostES(row map[string]interface{}) *es.PostES {
	return &es.PostES{
		ID:           StrToUint64(row["id"]),
		Title:        StrToString(row["title"]),
		Slug:         StrToString(row["slug"]),
		Summary:      StrToString(row["summary"]),
		PlainContent: markdown.PlainText(StrToString(row["html_content"])),
		CategoryID:   StrToUint64Ptr(row["category_id"]),
		Tags:         []string{},
		Status:       StrToInt8(row["status"]),
		PublishedAt:  StrToDateTimePtr(row["published_at"]),
		UpdatedAt:    StrToDateTime(row["updated_at"]),
	}
}

var indexedColumns = []string{"title", "slug", "summary", "html_content", "category_id", "status", "published_at", "updated_at"}

func documentChanged(message *CanalMessage) bool {
	if len(message.Old) == 0 {
		return true
	}
	for _, old := range message.Old {
		for _, col := range indexedColumns {
			if _, ok := old[col]; ok {
				return true
			}
		}
	}
	return false
}
