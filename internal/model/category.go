package model

import "time"

type Category struct {
	ID          uint64    `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_category_name" json:"name"`
	Slug        string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_category_slug" json:"slug"`
	Description string    `gorm:"type:varchar(255)" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Category) TableName() string {
	return "categories"
}
