package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Review is unique per (user, product).
type Review struct {
	ID            uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	UserID        uuid.UUID          `gorm:"column:user_id;type:uuid;not null;uniqueIndex:ux_reviews_user_product"`
	ProductID     uuid.UUID          `gorm:"column:product_id;type:uuid;not null;uniqueIndex:ux_reviews_user_product;index"`
	Rating        int                `gorm:"column:rating;not null"`
	Comment       *string            `gorm:"column:comment"`
	Image         *string            `gorm:"column:image"`
	Status        enums.ReviewStatus `gorm:"column:status;not null"`
	IsHighlighted bool               `gorm:"column:is_highlighted;not null"`
	User          *User              `gorm:"foreignKey:UserID"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (r *Review) BeforeCreate(*gorm.DB) error {
	assignID(&r.ID)
	return nil
}
