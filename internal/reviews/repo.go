package reviews

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) ProductExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// HasDeliveredPurchase reports whether userID has a DELIVERED order that
// contains productID.
func (r *Repository) HasDeliveredPurchase(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.user_id = ? AND orders.status = ? AND order_items.product_id = ?",
			userID, enums.OrderStatusDelivered, productID).
		Count(&count).Error
	return count > 0, err
}

func (r *Repository) Exists(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&count).Error
	return count > 0, err
}

func (r *Repository) Create(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Omit("User").Create(review).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	var review models.Review
	if err := r.db.WithContext(ctx).Preload("User").First(&review, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *Repository) UpdateColumns(ctx context.Context, id uuid.UUID, values map[string]any) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Review{}).Where("id = ?", id).Updates(values)
	return res.RowsAffected, res.Error
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Review{})
	return res.RowsAffected, res.Error
}

// ListApprovedForProduct pages approved reviews, newest first, with reviewers.
func (r *Repository) ListApprovedForProduct(ctx context.Context, productID uuid.UUID, offset, limit int) ([]models.Review, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("product_id = ? AND status = ?", productID, enums.ReviewStatusApproved)
	return page(query, offset, limit)
}

func (r *Repository) ListAll(ctx context.Context, status *enums.ReviewStatus, offset, limit int) ([]models.Review, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Review{})
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	return page(query, offset, limit)
}

func page(query *gorm.DB, offset, limit int) ([]models.Review, int64, error) {
	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.Review
	err := query.Session(&gorm.Session{}).
		Preload("User").
		Order("created_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&rows).Error
	return rows, total, err
}

// ToggleHighlight flips is_highlighted in place.
func (r *Repository) ToggleHighlight(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("id = ?", id).
		UpdateColumn("is_highlighted", gorm.Expr("NOT is_highlighted"))
	return res.RowsAffected, res.Error
}
