package dto

import "time"

type CredentialDTO struct {
	Username string `json:"username" binding:"required" validate:"min=3,max=50"`
	Password string `json:"password" binding:"required" validate:"min=6,max=64"`
}

type LoginResultDTO struct {
	Token       string    `json:"token"`
	ExpiresAt   time.Time `json:"expires_at"`
	Roles       []string  `json:"roles"`
	Permissions []string  `json:"permissions"`
}

type UserDTO struct {
	ID        uint64    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Nickname  string    `json:"nickname"`
	IsBan     bool      `json:"is_ban"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"created_at"`
}

type UserListQueryDTO struct {
	Page     int `form:"page"`
	PageSize int `form:"page_size"`
}

type UserRoleDTO struct {
	RoleID uint64 `json:"role_id" binding:"required"`
}

type RoleCreateDTO struct {
	Name        string   `json:"name" binding:"required" validate:"min=2,max=50"`
	Description string   `json:"description" validate:"omitempty,max=255"`
	Permissions []string `json:"permissions" binding:"required" validate:"min=1,dive,min=1,max=64"`
}
