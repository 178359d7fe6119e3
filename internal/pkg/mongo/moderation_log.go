package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const moderationLogCollection = "moderation_logs"

// CommentSnapshot 审核时评论的快照，驳回后原记录已被删除
type CommentSnapshot struct {
	AuthorName  string    `bson:"author_name" json:"author_name"`
	AuthorEmail string    `bson:"author_email" json:"author_email"`
	Content     string    `bson:"content" json:"content"`
	Status      int8      `bson:"status" json:"status"`
	ParentID    *uint64   `bson:"parent_id,omitempty" json:"parent_id,omitempty"`
	IP          string    `bson:"ip" json:"ip"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}

type ModerationLog struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Action     string             `bson:"action" json:"action"` // approve / reject / delete
	CommentID  uint64             `bson:"comment_id" json:"comment_id"`
	PostID     uint64             `bson:"post_id" json:"post_id"`
	OperatorID uint64             `bson:"operator_id" json:"operator_id"`
	Cascade    bool               `bson:"cascade" json:"cascade"`
	Affected   int64              `bson:"affected" json:"affected"`
	Snapshot   CommentSnapshot    `bson:"snapshot" json:"snapshot"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}
