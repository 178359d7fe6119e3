package dto

import (
	"Inkwell/internal/pkg/markdown"
	"time"
)

// PostBaseDTO 创建与编辑文章，Slug 为空时由标题生成
type PostBaseDTO struct {
	Title        string   `json:"title" binding:"required" validate:"min=1,max=255"`
	Slug         string   `json:"slug" validate:"omitempty,max=255,slug"`
	Summary      string   `json:"summary" validate:"omitempty,max=500"`
	Content      string   `json:"content" binding:"required"`
	CategoryID   *uint64  `json:"category_id"`
	Tags         []string `json:"tags" validate:"omitempty,max=10,dive,min=1,max=50"`
	Status       int8     `json:"status" validate:"oneof=0 1"`
	AllowComment *bool    `json:"allow_comment"`
}

type CategoryBriefDTO struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type TagBriefDTO struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// PostDTO 文章详情，HTML 与 TOC 来自渲染缓存
type PostDTO struct {
	ID            uint64               `json:"id"`
	UserID        uint64               `json:"user_id"`
	Title         string               `json:"title"`
	Slug          string               `json:"slug"`
	Summary       string               `json:"summary"`
	Content       string               `json:"content,omitempty"`
	HTML          string               `json:"html"`
	TOC           []*markdown.TocEntry `json:"toc"`
	Status        int8                 `json:"status"`
	AllowComment  bool                 `json:"allow_comment"`
	ViewCount     int64                `json:"view_count"`
	CommentsCount int64                `json:"comments_count"`
	Category      *CategoryBriefDTO    `json:"category,omitempty"`
	Tags          []*TagBriefDTO       `json:"tags"`
	PublishedAt   *time.Time           `json:"published_at"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// PostListItemDTO 列表项不含正文
type PostListItemDTO struct {
	ID            uint64            `json:"id"`
	Title         string            `json:"title"`
	Slug          string            `json:"slug"`
	Summary       string            `json:"summary"`
	Status        int8              `json:"status"`
	ViewCount     int64             `json:"view_count"`
	CommentsCount int64             `json:"comments_count"`
	Category      *CategoryBriefDTO `json:"category,omitempty"`
	Tags          []*TagBriefDTO    `json:"tags"`
	PublishedAt   *time.Time        `json:"published_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// PostListQueryDTO Status 仅后台列表生效
type PostListQueryDTO struct {
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	Category string `form:"category"`
	Tag      string `form:"tag"`
	Status   *int8  `form:"status" validate:"omitempty,oneof=0 1"`
	Keyword  string `form:"keyword"`
}

type PostSearchDTO struct {
	Keyword  string `form:"keyword" binding:"required" validate:"min=1,max=100"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}
