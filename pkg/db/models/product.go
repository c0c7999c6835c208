package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	dbtypes "github.com/angelmondragon/storefront-backend/pkg/db/types"
)

// Product is a catalog listing. When HasVariants is set, Quantity is not the
// authoritative stock; the variants own it.
type Product struct {
	ID                 uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	ProductName        string             `gorm:"column:product_name;not null"`
	ShortDesc          *string            `gorm:"column:short_desc"`
	LongDesc           *string            `gorm:"column:long_desc"`
	MainImage          string             `gorm:"column:main_image;not null"`
	ProductImages      dbtypes.StringList `gorm:"column:product_images;type:text"`
	YoutubeLink        *string            `gorm:"column:youtube_link"`
	Size               *string            `gorm:"column:size"`
	ExpiryDate         *time.Time         `gorm:"column:expiry_date"`
	BuyingPrice        *decimal.Decimal   `gorm:"column:buying_price;type:numeric(12,2)"`
	MaximumRetailPrice *decimal.Decimal   `gorm:"column:maximum_retail_price;type:numeric(12,2)"`
	SellingPrice       *decimal.Decimal   `gorm:"column:selling_price;type:numeric(12,2)"`
	Quantity           int                `gorm:"column:quantity;not null"`
	PaymentType        *string            `gorm:"column:payment_type"`
	Dimensions         dbtypes.JSONMap    `gorm:"column:dimensions;type:text"`
	MetaData           dbtypes.JSONMap    `gorm:"column:meta_data;type:text"`
	MasterCategoryID   uuid.UUID          `gorm:"column:master_category_id;type:uuid;not null;index"`
	LastCategoryID     *uuid.UUID         `gorm:"column:last_category_id;type:uuid;index"`
	IsFeatured         bool               `gorm:"column:is_featured;not null"`
	IsBestSelling      bool               `gorm:"column:is_best_selling;not null"`
	IsNewCollection    bool               `gorm:"column:is_new_collection;not null"`
	IsRelatedItem      bool               `gorm:"column:is_related_item;not null"`
	HasVariants        bool               `gorm:"column:has_variants;not null"`
	IsActive           bool               `gorm:"column:is_active;not null"`
	Variants           []ProductVariant   `gorm:"foreignKey:ProductID"`
	CreatedAt          time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}

// UnitPrice is the price charged per unit: selling price, else MRP, else zero.
func (p Product) UnitPrice() decimal.Decimal {
	return effectivePrice(p.SellingPrice, p.MaximumRetailPrice)
}

func effectivePrice(selling, mrp *decimal.Decimal) decimal.Decimal {
	if selling != nil && !selling.IsZero() {
		return *selling
	}
	if mrp != nil && !mrp.IsZero() {
		return *mrp
	}
	return decimal.Zero
}
