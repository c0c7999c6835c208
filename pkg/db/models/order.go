package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Order owns its items and history; both are removed with it.
type Order struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber    string              `gorm:"column:order_number;not null;uniqueIndex"`
	UserID         uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	AddressID      uuid.UUID           `gorm:"column:address_id;type:uuid;not null"`
	TotalAmount    decimal.Decimal     `gorm:"column:total_amount;type:numeric(12,2);not null"`
	DiscountAmount decimal.Decimal     `gorm:"column:discount_amount;type:numeric(12,2);not null"`
	FinalAmount    decimal.Decimal     `gorm:"column:final_amount;type:numeric(12,2);not null"`
	PaymentMethod  string              `gorm:"column:payment_method;not null"`
	PaymentID      *string             `gorm:"column:payment_id"`
	PaymentStatus  enums.PaymentStatus `gorm:"column:payment_status;not null"`
	Status         enums.OrderStatus   `gorm:"column:status;not null;index"`
	CouponID       *uuid.UUID          `gorm:"column:coupon_id;type:uuid"`
	Items          []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	History        []OrderHistory      `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Address        *Address            `gorm:"foreignKey:AddressID"`
	User           *User               `gorm:"foreignKey:UserID"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	assignID(&o.ID)
	return nil
}

// OrderItem captures the price at purchase time; it is never recomputed.
type OrderItem struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null;index"`
	VariantID *uuid.UUID      `gorm:"column:variant_id;type:uuid"`
	Quantity  int             `gorm:"column:quantity;not null"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Size      *string         `gorm:"column:size"`
	Color     *string         `gorm:"column:color"`
	Position  int             `gorm:"column:position;not null;default:0"`
	Product   *Product        `gorm:"foreignKey:ProductID"`
	Variant   *ProductVariant `gorm:"foreignKey:VariantID"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	assignID(&i.ID)
	return nil
}

// OrderHistory is append-only; one row per status change.
type OrderHistory struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID         `gorm:"column:order_id;type:uuid;not null;index"`
	Status    enums.OrderStatus `gorm:"column:status;not null"`
	Comment   *string           `gorm:"column:comment"`
	CreatedBy *uuid.UUID        `gorm:"column:created_by;type:uuid"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
}

func (OrderHistory) TableName() string { return "order_history" }

func (h *OrderHistory) BeforeCreate(*gorm.DB) error {
	assignID(&h.ID)
	return nil
}
