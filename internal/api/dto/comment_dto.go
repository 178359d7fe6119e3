package dto

// CommentCreateDTO 前台提交评论
type CommentCreateDTO struct {
	PostID      uint64  `json:"post_id" binding:"required"`
	ParentID    *uint64 `json:"parent_id"`
	AuthorName  string  `json:"author_name" binding:"required" validate:"max=100"`
	AuthorEmail string  `json:"author_email" validate:"omitempty,max=255"`
	Content     string  `json:"content" binding:"required"`
}

// CommentListQueryDTO Status 取值 pending / approved
type CommentListQueryDTO struct {
	PostID       *uint64 `form:"post_id"`
	Status       string  `form:"status" validate:"omitempty,oneof=pending approved rejected"`
	TopLevelOnly bool    `form:"top_level_only"`
	Page         int     `form:"page"`
	PageSize     int     `form:"page_size"`
}

// ModerateDTO 审核单条评论，Cascade 同时作用于全部回复
type ModerateDTO struct {
	Cascade bool `json:"cascade" form:"cascade"`
}

type BatchModerateDTO struct {
	IDs     []uint64 `json:"ids" binding:"required" validate:"min=1,max=100"`
	Cascade bool     `json:"cascade"`
}

type ModerationLogQueryDTO struct {
	CommentID uint64 `form:"comment_id"`
	PostID    uint64 `form:"post_id"`
	Action    string `form:"action" validate:"omitempty,oneof=approve reject delete"`
	Page      int    `form:"page"`
	PageSize  int    `form:"page_size"`
}
