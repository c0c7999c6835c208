package colors

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

func (r *Repository) Create(ctx context.Context, color *models.ColorScheme) error {
	return r.db.WithContext(ctx).Create(color).Error
}

func (r *Repository) Save(ctx context.Context, color *models.ColorScheme) error {
	return r.db.WithContext(ctx).Save(color).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.ColorScheme, error) {
	var color models.ColorScheme
	if err := r.db.WithContext(ctx).First(&color, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &color, nil
}

// NameTaken compares case-insensitively, ignoring excludeID.
func (r *Repository) NameTaken(ctx context.Context, name string, excludeID uuid.UUID) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&models.ColorScheme{}).Where("LOWER(name) = LOWER(?)", name)
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}
	err := q.Count(&count).Error
	return count > 0, err
}

func (r *Repository) List(ctx context.Context, offset, limit int) ([]models.ColorScheme, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.ColorScheme{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.ColorScheme
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Offset(offset).
		Limit(limit).
		Find(&rows).Error
	return rows, total, err
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&models.ColorScheme{}, "id = ?", id)
	return res.RowsAffected, res.Error
}
