package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

type Coupon struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	Code        string           `gorm:"column:code;not null;uniqueIndex"`
	Type        enums.CouponType `gorm:"column:type;not null"`
	Value       decimal.Decimal  `gorm:"column:value;type:numeric(12,2);not null"`
	MaxDiscount *decimal.Decimal `gorm:"column:max_discount;type:numeric(12,2)"`
	IsActive    bool             `gorm:"column:is_active;not null"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Coupon) BeforeCreate(*gorm.DB) error {
	assignID(&c.ID)
	return nil
}
