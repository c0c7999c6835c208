package bankdetails

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) FindByUser(ctx context.Context, userID uuid.UUID) (*models.BankDetails, error) {
	var details models.BankDetails
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&details).Error; err != nil {
		return nil, err
	}
	return &details, nil
}

func (r *Repository) Create(ctx context.Context, details *models.BankDetails) error {
	return r.db.WithContext(ctx).Create(details).Error
}

func (r *Repository) Save(ctx context.Context, details *models.BankDetails) error {
	return r.db.WithContext(ctx).Save(details).Error
}

func (r *Repository) List(ctx context.Context, offset, limit int) ([]models.BankDetails, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.BankDetails{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.BankDetails
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&rows).Error
	return rows, total, err
}
