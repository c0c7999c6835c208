package products

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

func (f fixture) variantProduct(t *testing.T) *models.Product {
	t.Helper()
	return dbtest.Product(t, f.conn, f.category.ID, func(p *models.Product) {
		p.ProductName = "Polo Shirt"
		p.HasVariants = true
		p.Quantity = 0
	})
}

func (f fixture) countRows(t *testing.T, model any) int64 {
	t.Helper()
	var count int64
	require.NoError(t, f.conn.Model(model).Count(&count).Error)
	return count
}

func TestCreateProductWithVariantsDerivesSKUs(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	created, err := f.svc.CreateProductWithVariants(ctx, CreateWithVariantsInput{
		Product: f.productInput("Polo Shirt"),
		Variants: []VariantInput{
			{Color: strPtr("Navy"), Size: strPtr("m"), Quantity: intPtr(3)},
			{Color: strPtr("White"), Size: strPtr("L"), SKU: strPtr("POLO-WHITE-L")},
		},
	})
	require.NoError(t, err)
	assert.True(t, created.HasVariants)
	assert.Zero(t, created.Quantity)
	require.Len(t, created.Variants, 2)
	assert.Equal(t, "POL-NA-M-123456", created.Variants[0].SKU)
	assert.Equal(t, 3, created.Variants[0].Quantity)
	assert.True(t, created.Variants[0].IsActive)
	assert.True(t, created.Variants[0].HasCashOnDelivery)
	assert.Equal(t, "POLO-WHITE-L", created.Variants[1].SKU)
}

func TestCreateProductWithVariantsRequiresVariants(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.CreateProductWithVariants(context.Background(), CreateWithVariantsInput{Product: f.productInput("Empty")})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestSKUUniquenessLeavesNoPartialRows(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	product := f.variantProduct(t)
	_, err := f.svc.CreateVariant(ctx, product.ID, VariantInput{SKU: strPtr("DUP-1"), Color: strPtr("Red")})
	require.NoError(t, err)

	productsBefore := f.countRows(t, &models.Product{})
	variantsBefore := f.countRows(t, &models.ProductVariant{})

	_, err = f.svc.CreateProductWithVariants(ctx, CreateWithVariantsInput{
		Product: f.productInput("Another"),
		Variants: []VariantInput{
			{SKU: strPtr("FRESH-1"), Color: strPtr("Blue")},
			{SKU: strPtr("DUP-1"), Color: strPtr("Green")},
		},
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))
	assert.Contains(t, err.Error(), "DUP-1")

	assert.Equal(t, productsBefore, f.countRows(t, &models.Product{}))
	assert.Equal(t, variantsBefore, f.countRows(t, &models.ProductVariant{}))

	_, err = f.svc.CreateVariant(ctx, product.ID, VariantInput{SKU: strPtr("DUP-1"), Color: strPtr("Black")})
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))
	assert.Equal(t, variantsBefore, f.countRows(t, &models.ProductVariant{}))
}

func TestDuplicateColorSizeRejected(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	product := f.variantProduct(t)

	_, err := f.svc.CreateVariant(ctx, product.ID, VariantInput{Color: strPtr("Red"), Size: strPtr("M")})
	require.NoError(t, err)
	_, err = f.svc.CreateVariant(ctx, product.ID, VariantInput{Color: strPtr("Red"), Size: strPtr("M"), SKU: strPtr("OTHER")})
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))

	// missing color and size compare equal
	_, err = f.svc.CreateVariant(ctx, product.ID, VariantInput{SKU: strPtr("PLAIN-1")})
	require.NoError(t, err)
	_, err = f.svc.CreateVariant(ctx, product.ID, VariantInput{SKU: strPtr("PLAIN-2")})
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))

	_, err = f.svc.CreateVariants(ctx, product.ID, []VariantInput{
		{Color: strPtr("Blue"), Size: strPtr("S"), SKU: strPtr("B-S")},
		{Color: strPtr("Blue"), Size: strPtr("S"), SKU: strPtr("B-S-2")},
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
	assert.Equal(t, 1, typed.Details().(map[string]any)["variantIndex"])

	var count int64
	require.NoError(t, f.conn.Model(&models.ProductVariant{}).Where("sku = ?", "B-S").Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateVariantRequiresVariantProduct(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	simple := dbtest.Product(t, f.conn, f.category.ID)
	_, err := f.svc.CreateVariant(ctx, simple.ID, VariantInput{Color: strPtr("Red")})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	_, err = f.svc.CreateVariant(ctx, uuid.New(), VariantInput{Color: strPtr("Red")})
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestUpdateVariantChecks(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	product := f.variantProduct(t)
	other := f.variantProduct(t)

	red := dbtest.Variant(t, f.conn, product.ID, func(v *models.ProductVariant) {
		v.Color = strPtr("Red")
		v.SKU = "RED-1"
	})
	blue := dbtest.Variant(t, f.conn, product.ID, func(v *models.ProductVariant) {
		v.Color = strPtr("Blue")
		v.SKU = "BLUE-1"
	})

	_, err := f.svc.UpdateVariant(ctx, product.ID, blue.ID, VariantInput{SKU: strPtr("RED-1")})
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))

	_, err = f.svc.UpdateVariant(ctx, product.ID, blue.ID, VariantInput{Color: strPtr("Red")})
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))

	_, err = f.svc.UpdateVariant(ctx, other.ID, red.ID, VariantInput{Quantity: intPtr(1)})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	_, err = f.svc.UpdateVariant(ctx, product.ID, uuid.New(), VariantInput{Quantity: intPtr(1)})
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))

	updated, err := f.svc.UpdateVariant(ctx, product.ID, red.ID, VariantInput{
		SKU:          strPtr("RED-1"),
		Quantity:     intPtr(42),
		SellingPrice: dbtest.Price("99.50"),
	})
	require.NoError(t, err)
	assert.Equal(t, 42, updated.Quantity)
	assert.True(t, updated.EffectivePrice.Equal(decimal.RequireFromString("99.5")))
}

func TestUpdateProductWithVariants(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	product := f.variantProduct(t)
	stranger := f.variantProduct(t)

	keep := dbtest.Variant(t, f.conn, product.ID, func(v *models.ProductVariant) { v.Size = strPtr("S") })
	drop := dbtest.Variant(t, f.conn, product.ID, func(v *models.ProductVariant) { v.Size = strPtr("M") })
	foreign := dbtest.Variant(t, f.conn, stranger.ID, func(v *models.ProductVariant) { v.Size = strPtr("L") })

	out, err := f.svc.UpdateProductWithVariants(ctx, product.ID, UpdateWithVariantsInput{
		Product: UpdateProductInput{ProductName: strPtr("Polo Classic")},
		Variants: []VariantInput{
			{ID: &keep.ID, Quantity: intPtr(9)},
			{Size: strPtr("XL"), SKU: strPtr("POLO-XL")},
		},
		DeleteVariantIDs: []uuid.UUID{drop.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, "Polo Classic", out.ProductName)
	require.Len(t, out.Variants, 3)

	byID := map[uuid.UUID]VariantDTO{}
	for _, v := range out.Variants {
		byID[v.ID] = v
	}
	assert.Equal(t, 9, byID[keep.ID].Quantity)
	assert.False(t, byID[drop.ID].IsActive)

	// a foreign variant id aborts the batch and the rename is rolled back
	_, err = f.svc.UpdateProductWithVariants(ctx, product.ID, UpdateWithVariantsInput{
		Product:  UpdateProductInput{ProductName: strPtr("Renamed")},
		Variants: []VariantInput{{ID: &foreign.ID, Quantity: intPtr(1)}},
	})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	var stored models.Product
	require.NoError(t, f.conn.First(&stored, "id = ?", product.ID).Error)
	assert.Equal(t, "Polo Classic", stored.ProductName)

	missing := uuid.New()
	_, err = f.svc.UpdateProductWithVariants(ctx, product.ID, UpdateWithVariantsInput{
		Variants: []VariantInput{{ID: &missing}},
	})
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestListVariantsOrderingAndFilters(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	product := f.variantProduct(t)

	first := dbtest.Variant(t, f.conn, product.ID, func(v *models.ProductVariant) {
		v.Color = strPtr("Red")
		v.Size = strPtr("S")
		v.SellingPrice = dbtest.Price("100")
	})
	def := dbtest.Variant(t, f.conn, product.ID, func(v *models.ProductVariant) {
		v.Color = strPtr("Blue")
		v.Size = strPtr("S")
		v.IsDefault = true
		v.SellingPrice = dbtest.Price("300")
	})
	off := dbtest.Variant(t, f.conn, product.ID, func(v *models.ProductVariant) {
		v.Color = strPtr("Green")
		v.Size = strPtr("XL")
		v.SellingPrice = dbtest.Price("200")
	})
	require.NoError(t, f.svc.DeleteVariant(ctx, product.ID, off.ID))

	all, err := f.svc.ListVariants(ctx, product.ID, VariantFilters{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, def.ID, all[0].ID)
	assert.Equal(t, first.ID, all[1].ID)

	active := true
	activeOnly, err := f.svc.ListVariants(ctx, product.ID, VariantFilters{IsActive: &active})
	require.NoError(t, err)
	assert.Len(t, activeOnly, 2)

	minPrice := decimal.NewFromInt(150)
	pricey, err := f.svc.ListVariants(ctx, product.ID, VariantFilters{MinPrice: &minPrice})
	require.NoError(t, err)
	assert.Len(t, pricey, 2)

	red, err := f.svc.ListVariants(ctx, product.ID, VariantFilters{Color: strPtr("Red")})
	require.NoError(t, err)
	require.Len(t, red, 1)

	colors, err := f.svc.AvailableColors(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Blue", "Red"}, colors)

	sizes, err := f.svc.AvailableSizes(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"S"}, sizes)
}

func TestVariantOwnershipOnReadsAndDeletes(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	product := f.variantProduct(t)
	other := f.variantProduct(t)
	variant := dbtest.Variant(t, f.conn, product.ID)

	_, err := f.svc.GetVariant(ctx, other.ID, variant.ID)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(f.svc.DeleteVariant(ctx, other.ID, variant.ID)))
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(f.svc.HardDeleteVariant(ctx, other.ID, variant.ID)))

	got, err := f.svc.GetVariant(ctx, product.ID, variant.ID)
	require.NoError(t, err)
	assert.Equal(t, variant.SKU, got.SKU)

	require.NoError(t, f.svc.HardDeleteVariant(ctx, product.ID, variant.ID))
	_, err = f.svc.GetVariant(ctx, product.ID, variant.ID)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestHardDeleteOrderedVariantConflicts(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	product := f.variantProduct(t)
	variant := dbtest.Variant(t, f.conn, product.ID)
	dbtest.Order(t, f.conn, models.OrderItem{ProductID: product.ID, VariantID: &variant.ID, Price: decimal.NewFromInt(150)})

	err := f.svc.HardDeleteVariant(ctx, product.ID, variant.ID)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))

	got, err := f.svc.GetVariant(ctx, product.ID, variant.ID)
	require.NoError(t, err)
	assert.Equal(t, variant.SKU, got.SKU)

	err = f.svc.HardDeleteProduct(ctx, product.ID)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))
}

func TestGenerateSKU(t *testing.T) {
	f := newFixture(t, nil)
	product := f.variantProduct(t)

	sku, err := f.svc.GenerateSKU(context.Background(), product.ID, strPtr("black"), nil)
	require.NoError(t, err)
	assert.Equal(t, "POL-BL-OS-123456", sku)

	_, err = f.svc.GenerateSKU(context.Background(), uuid.New(), nil, nil)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}
