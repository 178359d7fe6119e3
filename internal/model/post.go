package model

import (
	"Inkwell/internal/pkg/markdown"
	"time"
)

type Post struct {
	ID            uint64               `gorm:"primaryKey" json:"id"`
	UserID        uint64               `gorm:"not null;index:idx_user_id" json:"user_id"`
	CategoryID    *uint64              `gorm:"index:idx_category_id" json:"category_id"`
	Title         string               `gorm:"type:varchar(255);not null" json:"title"`
	Slug          string               `gorm:"type:varchar(255);not null;uniqueIndex:idx_slug" json:"slug"`
	Summary       string               `gorm:"type:varchar(500)" json:"summary"`
	Content       string               `gorm:"type:longtext;not null" json:"content"`
	HTMLContent   string               `gorm:"column:html_content;type:longtext" json:"html_content"`
	TOC           []*markdown.TocEntry `gorm:"column:toc;type:json;serializer:json" json:"toc"`
	RenderVersion int                  `gorm:"not null;default:0" json:"render_version"`
	Status        int8                 `gorm:"not null;default:0;index:idx_status_published" json:"status"` // 0:草稿, 1:已发布
	AllowComment  bool                 `gorm:"type:tinyint(1);not null;default:1" json:"allow_comment"`
	ViewCount     int64                `gorm:"not null;default:0" json:"view_count"`
	CommentsCount int64                `gorm:"not null;default:0" json:"comments_count"`
	PublishedAt   *time.Time           `gorm:"index:idx_status_published" json:"published_at"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`

	Category *Category `gorm:"foreignKey:CategoryID;references:ID" json:"category,omitempty"`
	Tags     []Tag     `gorm:"many2many:post_tags;joinForeignKey:PostID;joinReferences:TagID" json:"tags,omitempty"`
}

func (Post) TableName() string {
	return "posts"
}

// RenderStale 渲染缓存为空或由旧版本规则生成
func (p *Post) RenderStale() bool {
	if p.Content == "" {
		return false
	}
	return p.HTMLContent == "" || p.RenderVersion < markdown.Version
}
