package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// LineInput is one requested item. VariantID selects a VariantLine.
type LineInput struct {
	ProductID uuid.UUID  `json:"productId" validate:"required"`
	VariantID *uuid.UUID `json:"variantId,omitempty"`
	Quantity  int        `json:"quantity" validate:"required,min=1"`
}

// CreateOrderInput is the checkout payload.
type CreateOrderInput struct {
	AddressID     uuid.UUID   `json:"addressId" validate:"required"`
	Items         []LineInput `json:"items" validate:"required,min=1,dive"`
	PaymentMethod string      `json:"paymentMethod" validate:"required"`
	PaymentID     *string     `json:"paymentId,omitempty"`
	CouponID      *uuid.UUID  `json:"couponId,omitempty"`
}

type UpdateStatusInput struct {
	Status  enums.OrderStatus `json:"status" validate:"required"`
	Comment *string           `json:"comment,omitempty"`
}

type ProductSummary struct {
	ID          uuid.UUID `json:"id"`
	ProductName string    `json:"productName"`
	MainImage   string    `json:"mainImage"`
}

type VariantSummary struct {
	ID    uuid.UUID `json:"id"`
	SKU   string    `json:"sku"`
	Color *string   `json:"color,omitempty"`
	Size  *string   `json:"size,omitempty"`
}

type ItemDTO struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"productId"`
	VariantID *uuid.UUID      `json:"variantId,omitempty"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Size      *string         `json:"size,omitempty"`
	Color     *string         `json:"color,omitempty"`
	Product   *ProductSummary `json:"product,omitempty"`
	Variant   *VariantSummary `json:"variant,omitempty"`
}

type HistoryDTO struct {
	ID        uuid.UUID         `json:"id"`
	Status    enums.OrderStatus `json:"status"`
	Comment   *string           `json:"comment,omitempty"`
	CreatedBy *uuid.UUID        `json:"createdBy,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}

type AddressDTO struct {
	ID         uuid.UUID `json:"id"`
	FullName   string    `json:"fullName"`
	Phone      string    `json:"phone"`
	Line1      string    `json:"line1"`
	Line2      *string   `json:"line2,omitempty"`
	City       string    `json:"city"`
	State      string    `json:"state"`
	PostalCode string    `json:"postalCode"`
	Country    string    `json:"country"`
}

type UserSummary struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"fullName"`
	Email    string    `json:"email"`
}

// OrderDTO is the order as returned to clients; History is newest first.
type OrderDTO struct {
	ID             uuid.UUID           `json:"id"`
	OrderNumber    string              `json:"orderNumber"`
	UserID         uuid.UUID           `json:"userId"`
	AddressID      uuid.UUID           `json:"addressId"`
	TotalAmount    decimal.Decimal     `json:"totalAmount"`
	DiscountAmount decimal.Decimal     `json:"discountAmount"`
	FinalAmount    decimal.Decimal     `json:"finalAmount"`
	PaymentMethod  string              `json:"paymentMethod"`
	PaymentID      *string             `json:"paymentId,omitempty"`
	PaymentStatus  enums.PaymentStatus `json:"paymentStatus"`
	Status         enums.OrderStatus   `json:"status"`
	CouponID       *uuid.UUID          `json:"couponId,omitempty"`
	Items          []ItemDTO           `json:"items"`
	History        []HistoryDTO        `json:"history,omitempty"`
	Address        *AddressDTO         `json:"address,omitempty"`
	User           *UserSummary        `json:"user,omitempty"`
	CreatedAt      time.Time           `json:"createdAt"`
	UpdatedAt      time.Time           `json:"updatedAt"`
}

func fromModel(o *models.Order) OrderDTO {
	dto := OrderDTO{
		ID:             o.ID,
		OrderNumber:    o.OrderNumber,
		UserID:         o.UserID,
		AddressID:      o.AddressID,
		TotalAmount:    o.TotalAmount,
		DiscountAmount: o.DiscountAmount,
		FinalAmount:    o.FinalAmount,
		PaymentMethod:  o.PaymentMethod,
		PaymentID:      o.PaymentID,
		PaymentStatus:  o.PaymentStatus,
		Status:         o.Status,
		CouponID:       o.CouponID,
		Items:          make([]ItemDTO, 0, len(o.Items)),
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
	for i := range o.Items {
		dto.Items = append(dto.Items, itemFromModel(&o.Items[i]))
	}
	for _, h := range o.History {
		dto.History = append(dto.History, HistoryDTO{
			ID:        h.ID,
			Status:    h.Status,
			Comment:   h.Comment,
			CreatedBy: h.CreatedBy,
			CreatedAt: h.CreatedAt,
		})
	}
	if a := o.Address; a != nil {
		dto.Address = &AddressDTO{
			ID:         a.ID,
			FullName:   a.FullName,
			Phone:      a.Phone,
			Line1:      a.Line1,
			Line2:      a.Line2,
			City:       a.City,
			State:      a.State,
			PostalCode: a.PostalCode,
			Country:    a.Country,
		}
	}
	if u := o.User; u != nil {
		dto.User = &UserSummary{ID: u.ID, FullName: u.FullName, Email: u.Email}
	}
	return dto
}

func itemFromModel(it *models.OrderItem) ItemDTO {
	dto := ItemDTO{
		ID:        it.ID,
		ProductID: it.ProductID,
		VariantID: it.VariantID,
		Quantity:  it.Quantity,
		Price:     it.Price,
		Size:      it.Size,
		Color:     it.Color,
	}
	if p := it.Product; p != nil {
		dto.Product = &ProductSummary{ID: p.ID, ProductName: p.ProductName, MainImage: p.MainImage}
	}
	if v := it.Variant; v != nil {
		dto.Variant = &VariantSummary{ID: v.ID, SKU: v.SKU, Color: v.Color, Size: v.Size}
	}
	return dto
}

func fromModels(rows []models.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		out = append(out, fromModel(&rows[i]))
	}
	return out
}
