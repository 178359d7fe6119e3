package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ModerationLogQuery 零值字段不参与过滤
type ModerationLogQuery struct {
	CommentID uint64
	PostID    uint64
	Action    string
	Limit     int64
	Offset    int64
}

type ModerationLogRepo interface {
	CreateModerationLog(ctx context.Context, entry *ModerationLog) error
	ListModerationLogs(ctx context.Context, query ModerationLogQuery) ([]*ModerationLog, int64, error)
}

type moderationLogRepoImpl struct {
	col *mongo.Collection
}

func NewModerationLogRepo(db *mongo.Database) ModerationLogRepo {
	return &moderationLogRepoImpl{
		col: db.Collection(moderationLogCollection),
	}
}

func (s *moderationLogRepoImpl) CreateModerationLog(ctx context.Context, entry *ModerationLog) error {
	_, err := s.col.InsertOne(ctx, entry)
	return err
}

// ListModerationLogs 按时间倒序分页
func (s *moderationLogRepoImpl) ListModerationLogs(ctx context.Context, query ModerationLogQuery) ([]*ModerationLog, int64, error) {
	filter := bson.M{}
	if query.CommentID != 0 {
		filter["comment_id"] = query.CommentID
	}
	if query.PostID != 0 {
		filter["post_id"] = query.PostID
	}
	if query.Action != "" {
		filter["action"] = query.Action
	}

	total, err := s.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(query.Limit).
		SetSkip(query.Offset)
	cursor, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	list := make([]*ModerationLog, 0)
	if err = cursor.All(ctx, &list); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}
