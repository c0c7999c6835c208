package reviews

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

type fixture struct {
	svc     Service
	conn    *gorm.DB
	buyer   *models.User
	product *models.Product
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn), nil)
	require.NoError(t, err)
	category := dbtest.Category(t, conn, nil)
	return fixture{
		svc:     svc,
		conn:    conn,
		buyer:   dbtest.User(t, conn, func(u *models.User) { u.FullName = "Asha Rao" }),
		product: dbtest.Product(t, conn, category.ID),
	}
}

// placeOrder writes an order for userID containing productID in the given status.
func (f fixture) placeOrder(t *testing.T, userID, productID uuid.UUID, status enums.OrderStatus) *models.Order {
	t.Helper()
	address := dbtest.Address(t, f.conn, userID)
	order := &models.Order{
		OrderNumber:    "ORD-" + uuid.NewString()[:8],
		UserID:         userID,
		AddressID:      address.ID,
		TotalAmount:    decimal.NewFromInt(100),
		DiscountAmount: decimal.Zero,
		FinalAmount:    decimal.NewFromInt(100),
		PaymentMethod:  "COD",
		PaymentStatus:  enums.PaymentStatusPending,
		Status:         status,
		Items: []models.OrderItem{{
			ProductID: productID,
			Quantity:  1,
			Price:     decimal.NewFromInt(100),
		}},
	}
	require.NoError(t, f.conn.Create(order).Error)
	return order
}

func (f fixture) review(t *testing.T, userID uuid.UUID, status enums.ReviewStatus, createdAt time.Time) *models.Review {
	t.Helper()
	r := &models.Review{UserID: userID, ProductID: f.product.ID, Rating: 4, Status: status, CreatedAt: createdAt}
	require.NoError(t, f.conn.Create(r).Error)
	return r
}

func TestNewServiceRequiresRepo(t *testing.T) {
	_, err := NewService(nil, nil)
	require.Error(t, err)
}

func TestReviewGating(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := auth.Actor{UserID: f.buyer.ID}
	in := CreateReviewInput{ProductID: f.product.ID, Rating: 5, Comment: strPtr("  Fits well  ")}

	_, err := f.svc.CreateReview(ctx, actor, in)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))

	order := f.placeOrder(t, f.buyer.ID, f.product.ID, enums.OrderStatusShipped)
	_, err = f.svc.CreateReview(ctx, actor, in)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))

	require.NoError(t, f.conn.Model(&models.Order{}).Where("id = ?", order.ID).Update("status", enums.OrderStatusDelivered).Error)
	created, err := f.svc.CreateReview(ctx, actor, in)
	require.NoError(t, err)
	assert.Equal(t, enums.ReviewStatusPending, created.Status)
	assert.Equal(t, "Fits well", *created.Comment)
	require.NotNil(t, created.User)
	assert.Equal(t, "Asha Rao", created.User.FullName)

	_, err = f.svc.CreateReview(ctx, actor, in)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))

	var count int64
	require.NoError(t, f.conn.Model(&models.Review{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestReviewGatingIgnoresOtherBuyersAndProducts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	other := dbtest.User(t, f.conn)
	f.placeOrder(t, other.ID, f.product.ID, enums.OrderStatusDelivered)
	otherProduct := dbtest.Product(t, f.conn, f.product.MasterCategoryID)
	f.placeOrder(t, f.buyer.ID, otherProduct.ID, enums.OrderStatusDelivered)

	_, err := f.svc.CreateReview(ctx, auth.Actor{UserID: f.buyer.ID}, CreateReviewInput{ProductID: f.product.ID, Rating: 3})
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))
}

func TestCreateReviewValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := auth.Actor{UserID: f.buyer.ID}
	f.placeOrder(t, f.buyer.ID, f.product.ID, enums.OrderStatusDelivered)

	for _, rating := range []int{0, 6, -1} {
		_, err := f.svc.CreateReview(ctx, actor, CreateReviewInput{ProductID: f.product.ID, Rating: rating})
		assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err), "rating %d", rating)
	}

	_, err := f.svc.CreateReview(ctx, actor, CreateReviewInput{ProductID: uuid.New(), Rating: 4})
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))

	_, err = f.svc.CreateReview(ctx, auth.Actor{}, CreateReviewInput{ProductID: f.product.ID, Rating: 4})
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.CodeOf(err))
}

func TestProductReviewsShowApprovedNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now()

	older := f.review(t, f.buyer.ID, enums.ReviewStatusApproved, now.Add(-2*time.Hour))
	second := dbtest.User(t, f.conn)
	newer := f.review(t, second.ID, enums.ReviewStatusApproved, now.Add(-time.Hour))
	third := dbtest.User(t, f.conn)
	f.review(t, third.ID, enums.ReviewStatusPending, now)

	page, err := f.svc.GetProductReviews(ctx, f.product.ID, pagination.Params{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, newer.ID, page.Items[0].ID)
	assert.Equal(t, older.ID, page.Items[1].ID)
	require.NotNil(t, page.Items[1].User)
	assert.Equal(t, "Asha Rao", page.Items[1].User.FullName)

	all, err := f.svc.ListAllReviews(ctx, pagination.Params{}, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 3, all.Pagination.Total)

	pending := enums.ReviewStatusPending
	onlyPending, err := f.svc.ListAllReviews(ctx, pagination.Params{}, &pending)
	require.NoError(t, err)
	assert.Len(t, onlyPending.Items, 1)
}

func TestModeration(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	review := f.review(t, f.buyer.ID, enums.ReviewStatusPending, time.Now())

	approved, err := f.svc.UpdateReviewStatus(ctx, review.ID, UpdateStatusInput{Status: enums.ReviewStatusApproved})
	require.NoError(t, err)
	assert.Equal(t, enums.ReviewStatusApproved, approved.Status)

	_, err = f.svc.UpdateReviewStatus(ctx, review.ID, UpdateStatusInput{Status: "SPAM"})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
	_, err = f.svc.UpdateReviewStatus(ctx, uuid.New(), UpdateStatusInput{Status: enums.ReviewStatusRejected})
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))

	highlighted, err := f.svc.ToggleHighlight(ctx, review.ID)
	require.NoError(t, err)
	assert.True(t, highlighted.IsHighlighted)
	toggledBack, err := f.svc.ToggleHighlight(ctx, review.ID)
	require.NoError(t, err)
	assert.False(t, toggledBack.IsHighlighted)
	_, err = f.svc.ToggleHighlight(ctx, uuid.New())
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))

	require.NoError(t, f.svc.DeleteReview(ctx, review.ID))
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(f.svc.DeleteReview(ctx, review.ID)))
}

func strPtr(v string) *string { return &v }
