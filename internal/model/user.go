package model

import (
	"time"
)

type User struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_username" json:"username"`
	Email     string    `gorm:"type:varchar(255)" json:"email"`
	Nickname  string    `gorm:"type:varchar(50)" json:"nickname"`
	Password  string    `gorm:"type:varchar(255);not null" json:"-"`
	IsBan     bool      `gorm:"type:tinyint(1);default:0" json:"is_ban"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserRoles []UserRole `gorm:"foreignKey:UserID;references:ID" json:"-"`
}

func (User) TableName() string {
	return "users"
}
