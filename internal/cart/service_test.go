package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type fixture struct {
	svc      Service
	conn     *gorm.DB
	actor    auth.Actor
	category *models.Category
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)
	return fixture{
		svc:      svc,
		conn:     conn,
		actor:    auth.Actor{UserID: dbtest.User(t, conn).ID},
		category: dbtest.Category(t, conn, nil),
	}
}

func intPtr(v int) *int { return &v }

func TestAddMergesQuantity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := dbtest.Product(t, f.conn, f.category.ID)

	first, err := f.svc.Add(ctx, f.actor, AddItemInput{ProductID: product.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Quantity)

	merged, err := f.svc.Add(ctx, f.actor, AddItemInput{ProductID: product.ID, Quantity: intPtr(3)})
	require.NoError(t, err)
	assert.Equal(t, 4, merged.Quantity)
	assert.True(t, merged.Subtotal.Equal(decimal.NewFromInt(400)))

	count, err := f.svc.Count(ctx, f.actor)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestAddRejectsMissingOrInactiveProducts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inactive := dbtest.Product(t, f.conn, f.category.ID, func(p *models.Product) { p.IsActive = false })

	_, err := f.svc.Add(ctx, f.actor, AddItemInput{ProductID: uuid.New()})
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
	_, err = f.svc.Add(ctx, f.actor, AddItemInput{ProductID: inactive.ID})
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
	_, err = f.svc.Add(ctx, f.actor, AddItemInput{ProductID: inactive.ID, Quantity: intPtr(0)})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestUpdateRemoveAndClear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tee := dbtest.Product(t, f.conn, f.category.ID)
	hat := dbtest.Product(t, f.conn, f.category.ID, func(p *models.Product) { p.ProductName = "Cap" })

	_, err := f.svc.Add(ctx, f.actor, AddItemInput{ProductID: tee.ID})
	require.NoError(t, err)
	_, err = f.svc.Add(ctx, f.actor, AddItemInput{ProductID: hat.ID})
	require.NoError(t, err)

	updated, err := f.svc.UpdateQuantity(ctx, f.actor, tee.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Quantity)

	_, err = f.svc.UpdateQuantity(ctx, f.actor, tee.ID, 0)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	stranger := auth.Actor{UserID: dbtest.User(t, f.conn).ID}
	_, err = f.svc.UpdateQuantity(ctx, stranger, tee.ID, 2)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(f.svc.Remove(ctx, stranger, tee.ID)))

	require.NoError(t, f.svc.Remove(ctx, f.actor, hat.ID))
	items, err := f.svc.List(ctx, f.actor)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, tee.ID, items[0].ProductID)

	removed, err := f.svc.Clear(ctx, f.actor)
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)
}

func TestTotalUsesEffectivePrice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	discounted := dbtest.Product(t, f.conn, f.category.ID)
	mrpOnly := dbtest.Product(t, f.conn, f.category.ID, func(p *models.Product) {
		p.SellingPrice = nil
		p.MaximumRetailPrice = dbtest.Price("45.50")
	})

	_, err := f.svc.Add(ctx, f.actor, AddItemInput{ProductID: discounted.ID, Quantity: intPtr(2)})
	require.NoError(t, err)
	_, err = f.svc.Add(ctx, f.actor, AddItemInput{ProductID: mrpOnly.ID, Quantity: intPtr(2)})
	require.NoError(t, err)

	total, err := f.svc.Total(ctx, f.actor)
	require.NoError(t, err)
	assert.Equal(t, 2, total.ItemCount)
	assert.True(t, total.Total.Equal(decimal.RequireFromString("291")), total.Total.String())

	empty, err := f.svc.Total(ctx, auth.Actor{UserID: dbtest.User(t, f.conn).ID})
	require.NoError(t, err)
	assert.True(t, empty.Total.IsZero())
	assert.Empty(t, empty.Items)
}
