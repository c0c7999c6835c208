package products

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

func TestUpdateInventorySetsProductAndVariantStock(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	simple := dbtest.Product(t, f.conn, f.category.ID)
	parent := f.variantProduct(t)
	variant := dbtest.Variant(t, f.conn, parent.ID)

	results, err := f.svc.UpdateInventory(ctx, []InventoryUpdate{
		{ProductID: simple.ID, Quantity: 0},
		{ProductID: parent.ID, VariantID: &variant.ID, Quantity: 40},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 40, results[1].Quantity)

	var p models.Product
	require.NoError(t, f.conn.First(&p, "id = ?", simple.ID).Error)
	assert.Zero(t, p.Quantity)

	var v models.ProductVariant
	require.NoError(t, f.conn.First(&v, "id = ?", variant.ID).Error)
	assert.Equal(t, 40, v.Quantity)
}

func TestUpdateInventoryIsAllOrNothing(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	simple := dbtest.Product(t, f.conn, f.category.ID)
	parent := f.variantProduct(t)
	other := f.variantProduct(t)
	foreign := dbtest.Variant(t, f.conn, other.ID)

	_, err := f.svc.UpdateInventory(ctx, []InventoryUpdate{
		{ProductID: simple.ID, Quantity: 99},
		{ProductID: uuid.New(), Quantity: 1},
	})
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))

	_, err = f.svc.UpdateInventory(ctx, []InventoryUpdate{
		{ProductID: simple.ID, Quantity: 99},
		{ProductID: parent.ID, VariantID: &foreign.ID, Quantity: 1},
	})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	var p models.Product
	require.NoError(t, f.conn.First(&p, "id = ?", simple.ID).Error)
	assert.Equal(t, 10, p.Quantity)
}

func TestUpdateInventoryValidatesBatch(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	simple := dbtest.Product(t, f.conn, f.category.ID)

	_, err := f.svc.UpdateInventory(ctx, nil)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	_, err = f.svc.UpdateInventory(ctx, []InventoryUpdate{{ProductID: simple.ID, Quantity: -1}})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Equal(t, map[string]any{"index": 0}, typed.Details())

	_, err = f.svc.UpdateInventory(ctx, []InventoryUpdate{{Quantity: 1}})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}
