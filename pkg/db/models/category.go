package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category is a node in the catalog tree. ParentID is a plain id reference.
type Category struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Name        string     `gorm:"column:name;not null"`
	Slug        *string    `gorm:"column:slug;uniqueIndex"`
	Description *string    `gorm:"column:description"`
	IsActive    bool       `gorm:"column:is_active;not null"`
	ParentID    *uuid.UUID `gorm:"column:parent_id;type:uuid;index"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Category) BeforeCreate(*gorm.DB) error {
	assignID(&c.ID)
	return nil
}
