package dto

type CategoryDTO struct {
	Name        string `json:"name" binding:"required" validate:"min=1,max=50"`
	Slug        string `json:"slug" validate:"omitempty,max=100,slug"`
	Description string `json:"description" validate:"omitempty,max=255"`
}

type TagDTO struct {
	Name string `json:"name" binding:"required" validate:"min=1,max=50"`
	Slug string `json:"slug" validate:"omitempty,max=100,slug"`
}
