package dbtest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

func mustCreate(t testing.TB, conn *gorm.DB, row any) {
	t.Helper()
	if err := conn.Create(row).Error; err != nil {
		t.Fatalf("create %T: %v", row, err)
	}
}

// Price is a shorthand for a decimal pointer.
func Price(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func User(t testing.TB, conn *gorm.DB, mutate ...func(*models.User)) *models.User {
	t.Helper()
	u := &models.User{
		FullName:     "Test Shopper",
		Email:        fmt.Sprintf("shopper_%s@example.com", uuid.NewString()[:8]),
		PasswordHash: "hash",
		IsActive:     true,
	}
	for _, fn := range mutate {
		fn(u)
	}
	mustCreate(t, conn, u)
	return u
}

func Address(t testing.TB, conn *gorm.DB, userID uuid.UUID) *models.Address {
	t.Helper()
	a := &models.Address{
		UserID:     userID,
		FullName:   "Test Shopper",
		Phone:      "+910000000000",
		Line1:      "1 Market Road",
		City:       "Pune",
		State:      "MH",
		PostalCode: "411001",
		Country:    "IN",
	}
	mustCreate(t, conn, a)
	return a
}

func Category(t testing.TB, conn *gorm.DB, parentID *uuid.UUID) *models.Category {
	t.Helper()
	c := &models.Category{
		Name:     "Category " + uuid.NewString()[:6],
		IsActive: true,
		ParentID: parentID,
	}
	mustCreate(t, conn, c)
	return c
}

func Product(t testing.TB, conn *gorm.DB, categoryID uuid.UUID, mutate ...func(*models.Product)) *models.Product {
	t.Helper()
	p := &models.Product{
		ProductName:        "Cotton Tee",
		MainImage:          "uploads/tee.png",
		MaximumRetailPrice: Price("120"),
		SellingPrice:       Price("100"),
		Quantity:           10,
		MasterCategoryID:   categoryID,
		IsActive:           true,
	}
	for _, fn := range mutate {
		fn(p)
	}
	mustCreate(t, conn, p)
	return p
}

func Variant(t testing.TB, conn *gorm.DB, productID uuid.UUID, mutate ...func(*models.ProductVariant)) *models.ProductVariant {
	t.Helper()
	v := &models.ProductVariant{
		ProductID:         productID,
		SKU:               "SKU-" + uuid.NewString()[:12],
		SellingPrice:      Price("150"),
		Quantity:          5,
		LowStockAlert:     5,
		HasCashOnDelivery: true,
		IsActive:          true,
	}
	for _, fn := range mutate {
		fn(v)
	}
	mustCreate(t, conn, v)
	return v
}

// Order writes a pending order for a fresh shopper with one line per item.
func Order(t testing.TB, conn *gorm.DB, items ...models.OrderItem) *models.Order {
	t.Helper()
	user := User(t, conn)
	address := Address(t, conn, user.ID)
	for i := range items {
		items[i].Position = i
		if items[i].Quantity == 0 {
			items[i].Quantity = 1
		}
	}
	o := &models.Order{
		OrderNumber:    "ORD-" + uuid.NewString()[:8],
		UserID:         user.ID,
		AddressID:      address.ID,
		TotalAmount:    decimal.NewFromInt(100),
		DiscountAmount: decimal.Zero,
		FinalAmount:    decimal.NewFromInt(100),
		PaymentMethod:  "COD",
		PaymentStatus:  enums.PaymentStatusPending,
		Status:         enums.OrderStatusPending,
		Items:          items,
	}
	mustCreate(t, conn, o)
	return o
}
