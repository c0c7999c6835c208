package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ColorScheme struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name        string    `gorm:"column:name;not null;uniqueIndex"`
	Description *string   `gorm:"column:description"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *ColorScheme) BeforeCreate(*gorm.DB) error {
	assignID(&c.ID)
	return nil
}
