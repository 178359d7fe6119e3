package es

import "time"

// PostES 写入 ES 的文章文档，正文只保存去标签后的纯文本
type PostES struct {
	ID           uint64     `json:"id"`
	Title        string     `json:"title"`
	Slug         string     `json:"slug"`
	Summary      string     `json:"summary"`
	PlainContent string     `json:"plain_content"`
	CategoryID   *uint64    `json:"category_id,omitempty"`
	Tags         []string   `json:"tags"`
	Status       int8       `json:"status"`
	PublishedAt  *time.Time `json:"published_at,omitempty"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
