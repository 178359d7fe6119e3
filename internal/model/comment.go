package model

import "time"

type Comment struct {
	ID          uint64    `gorm:"primaryKey" json:"id"`
	PostID      uint64    `gorm:"not null;index:idx_post_status" json:"post_id"`
	ParentID    *uint64   `gorm:"index:idx_parent_id" json:"parent_id"` // nil 表示顶级评论
	AuthorName  string    `gorm:"type:varchar(100);not null" json:"author_name"`
	AuthorEmail string    `gorm:"type:varchar(255)" json:"author_email"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	Status      int8      `gorm:"not null;default:0;index:idx_post_status;index:idx_status" json:"status"` // 0:待审, 1:通过
	IP          string    `gorm:"type:varchar(64)" json:"ip"`
	UserAgent   string    `gorm:"type:varchar(255)" json:"user_agent"`
	CreatedAt   time.Time `gorm:"index:idx_created_at" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Comment) TableName() string {
	return "comments"
}
