package model

import "time"

// UserRole 用户与角色多对多关联
type UserRole struct {
	UserID    uint64    `gorm:"primaryKey" json:"user_id"`
	RoleID    uint64    `gorm:"primaryKey;index:idx_role_id" json:"role_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (UserRole) TableName() string {
	return "user_roles"
}
