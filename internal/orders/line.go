package orders

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// LineKind tells whether an order line draws stock from the product row or
// from one of its variants.
type LineKind int

const (
	ProductLine LineKind = iota + 1
	VariantLine
)

func (k LineKind) String() string {
	switch k {
	case ProductLine:
		return "product"
	case VariantLine:
		return "variant"
	default:
		return "unknown"
	}
}

// Line is a validated order line.
type Line struct {
	Kind      LineKind
	ProductID uuid.UUID
	VariantID uuid.UUID
	Quantity  int
}

// NewLine classifies a requested item. The variant id is only read for
// VariantLine.
func NewLine(in LineInput) (Line, error) {
	if in.ProductID == uuid.Nil {
		return Line{}, pkgerrors.New(pkgerrors.CodeValidation, "productId is required")
	}
	if in.Quantity < 1 {
		return Line{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	line := Line{Kind: ProductLine, ProductID: in.ProductID, Quantity: in.Quantity}
	if in.VariantID != nil && *in.VariantID != uuid.Nil {
		line.Kind = VariantLine
		line.VariantID = *in.VariantID
	}
	return line, nil
}

// pricedLine is a line resolved against current catalog rows.
type pricedLine struct {
	Line
	UnitPrice decimal.Decimal
	Available int
	Size      *string
	Color     *string
}

func (l pricedLine) subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}
