package coupons

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

type CreateCouponInput struct {
	Code        string           `json:"code" validate:"required,max=64"`
	Type        enums.CouponType `json:"type" validate:"required"`
	Value       decimal.Decimal  `json:"value"`
	MaxDiscount *decimal.Decimal `json:"maxDiscount,omitempty"`
	IsActive    *bool            `json:"isActive,omitempty"`
}

// UpdateCouponInput patches a coupon. ClearMaxDiscount removes the cap.
type UpdateCouponInput struct {
	Type             *enums.CouponType `json:"type,omitempty"`
	Value            *decimal.Decimal  `json:"value,omitempty"`
	MaxDiscount      *decimal.Decimal  `json:"maxDiscount,omitempty"`
	ClearMaxDiscount bool              `json:"clearMaxDiscount,omitempty"`
	IsActive         *bool             `json:"isActive,omitempty"`
}

type CouponDTO struct {
	ID          uuid.UUID        `json:"id"`
	Code        string           `json:"code"`
	Type        enums.CouponType `json:"type"`
	Value       decimal.Decimal  `json:"value"`
	MaxDiscount *decimal.Decimal `json:"maxDiscount,omitempty"`
	IsActive    bool             `json:"isActive"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

func fromModel(c *models.Coupon) CouponDTO {
	return CouponDTO{
		ID:          c.ID,
		Code:        c.Code,
		Type:        c.Type,
		Value:       c.Value,
		MaxDiscount: c.MaxDiscount,
		IsActive:    c.IsActive,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}
