package orders

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

var hundred = decimal.NewFromInt(100)

// Discount returns what coupon takes off total. A missing or inactive coupon
// discounts nothing; a set MaxDiscount caps the result.
func Discount(coupon *models.Coupon, total decimal.Decimal) decimal.Decimal {
	if coupon == nil || !coupon.IsActive {
		return decimal.Zero
	}

	var discount decimal.Decimal
	switch coupon.Type {
	case enums.CouponTypeFixed:
		discount = coupon.Value
	case enums.CouponTypePercentage:
		discount = total.Mul(coupon.Value).Div(hundred).Round(2)
	default:
		return decimal.Zero
	}

	if coupon.MaxDiscount != nil && discount.GreaterThan(*coupon.MaxDiscount) {
		discount = *coupon.MaxDiscount
	}
	if discount.IsNegative() {
		return decimal.Zero
	}
	return discount
}

// FinalAmount never goes below zero.
func FinalAmount(total, discount decimal.Decimal) decimal.Decimal {
	final := total.Sub(discount)
	if final.IsNegative() {
		return decimal.Zero
	}
	return final
}
