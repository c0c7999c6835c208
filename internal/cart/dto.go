package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

type AddItemInput struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  *int      `json:"quantity,omitempty" validate:"omitempty,min=1,max=1000"`
}

type UpdateQuantityInput struct {
	Quantity int `json:"quantity" validate:"required,min=1,max=1000"`
}

type ProductSummary struct {
	ID          uuid.UUID       `json:"id"`
	ProductName string          `json:"productName"`
	MainImage   string          `json:"mainImage"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Quantity    int             `json:"availableQuantity"`
	IsActive    bool            `json:"isActive"`
}

type ItemDTO struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"productId"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Product   *ProductSummary `json:"product,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type TotalDTO struct {
	ItemCount int             `json:"itemCount"`
	Total     decimal.Decimal `json:"total"`
	Items     []ItemDTO       `json:"items"`
}

func fromModel(c *models.CartItem) ItemDTO {
	dto := ItemDTO{
		ID:        c.ID,
		ProductID: c.ProductID,
		Quantity:  c.Quantity,
		Subtotal:  decimal.Zero,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	if p := c.Product; p != nil {
		price := p.UnitPrice()
		dto.Subtotal = price.Mul(decimal.NewFromInt(int64(c.Quantity)))
		dto.Product = &ProductSummary{
			ID:          p.ID,
			ProductName: p.ProductName,
			MainImage:   p.MainImage,
			UnitPrice:   price,
			Quantity:    p.Quantity,
			IsActive:    p.IsActive,
		}
	}
	return dto
}
