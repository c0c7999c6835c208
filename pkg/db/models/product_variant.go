package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	dbtypes "github.com/angelmondragon/storefront-backend/pkg/db/types"
)

// ProductVariant is a purchasable (color, size) flavour of a product. SKU is
// unique across the whole catalog.
type ProductVariant struct {
	ID                 uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	ProductID          uuid.UUID          `gorm:"column:product_id;type:uuid;not null;index"`
	SKU                string             `gorm:"column:sku;not null;uniqueIndex"`
	VariantName        *string            `gorm:"column:variant_name"`
	Color              *string            `gorm:"column:color"`
	Size               *string            `gorm:"column:size"`
	Dimensions         dbtypes.JSONMap    `gorm:"column:dimensions;type:text"`
	Attributes         dbtypes.JSONMap    `gorm:"column:attributes;type:text"`
	VariantImages      dbtypes.StringList `gorm:"column:variant_images;type:text"`
	VariantDescription *string            `gorm:"column:variant_description"`
	BuyingPrice        *decimal.Decimal   `gorm:"column:buying_price;type:numeric(12,2)"`
	MaximumRetailPrice *decimal.Decimal   `gorm:"column:maximum_retail_price;type:numeric(12,2)"`
	SellingPrice       *decimal.Decimal   `gorm:"column:selling_price;type:numeric(12,2)"`
	Quantity           int                `gorm:"column:quantity;not null"`
	LowStockAlert      int                `gorm:"column:low_stock_alert;not null"`
	ExpiryDate         *time.Time         `gorm:"column:expiry_date"`
	HasCashOnDelivery  bool               `gorm:"column:has_cash_on_delivery;not null"`
	IsRelatedItem      bool               `gorm:"column:is_related_item;not null"`
	IsDefault          bool               `gorm:"column:is_default;not null"`
	IsActive           bool               `gorm:"column:is_active;not null"`
	CreatedAt          time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (v *ProductVariant) BeforeCreate(*gorm.DB) error {
	assignID(&v.ID)
	return nil
}

func (v ProductVariant) UnitPrice() decimal.Decimal {
	return effectivePrice(v.SellingPrice, v.MaximumRetailPrice)
}
