package categories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Repository handles category persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to category operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// SlugTaken reports whether a row other than excludeID already uses slug.
func (r *Repository) SlugTaken(ctx context.Context, slug string, excludeID *uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).Model(&models.Category{}).Where("slug = ?", slug)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save writes every column of the category, including nil parent and slug.
func (r *Repository) Save(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Save(category).Error
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Category{}).Error
}

// treeLockKey names the advisory lock that serializes re-parenting.
const treeLockKey int64 = 0x63617467

// LockTree holds a transaction-scoped lock over the parent relation so two
// moves cannot each pass the cycle check against a tree the other is changing.
// SQLite serializes writers on its own and needs nothing here.
func (r *Repository) LockTree(ctx context.Context) error {
	stmt := treeLockStatement(r.db.Dialector.Name())
	if stmt == "" {
		return nil
	}
	return r.db.WithContext(ctx).Exec(stmt, treeLockKey).Error
}

func treeLockStatement(dialect string) string {
	if dialect == "postgres" {
		return "SELECT pg_advisory_xact_lock(?)"
	}
	return ""
}

// ParentArena loads the whole {id -> parent} relation in one query.
func (r *Repository) ParentArena(ctx context.Context) (Arena, error) {
	type row struct {
		ID       uuid.UUID
		ParentID *uuid.UUID
	}
	var rows []row
	if err := r.db.WithContext(ctx).
		Model(&models.Category{}).
		Select("id", "parent_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	arena := make(Arena, len(rows))
	for _, rw := range rows {
		arena[rw.ID] = rw.ParentID
	}
	return arena, nil
}

func (r *Repository) CountChildren(ctx context.Context, parentID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Category{}).
		Where("parent_id = ?", parentID).
		Count(&count).Error
	return count, err
}

// CountProducts counts products filed under the category as master or leaf.
func (r *Repository) CountProducts(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("master_category_id = ? OR last_category_id = ?", categoryID, categoryID).
		Count(&count).Error
	return count, err
}

// ChildCounts returns the number of direct children per parent id.
func (r *Repository) ChildCounts(ctx context.Context, parentIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	counts := make(map[uuid.UUID]int64, len(parentIDs))
	if len(parentIDs) == 0 {
		return counts, nil
	}
	type row struct {
		ParentID uuid.UUID
		Total    int64
	}
	var rows []row
	if err := r.db.WithContext(ctx).
		Model(&models.Category{}).
		Select("parent_id, COUNT(*) AS total").
		Where("parent_id IN ?", parentIDs).
		Group("parent_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, rw := range rows {
		counts[rw.ParentID] = rw.Total
	}
	return counts, nil
}

// ListChildren returns direct children ordered by name. activeOnly limits the
// result to active rows.
func (r *Repository) ListChildren(ctx context.Context, parentID uuid.UUID, activeOnly bool) ([]models.Category, error) {
	query := r.db.WithContext(ctx).Where("parent_id = ?", parentID)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var rows []models.Category
	err := query.Order("name ASC").Find(&rows).Error
	return rows, err
}

func (r *Repository) ListRoots(ctx context.Context) ([]models.Category, error) {
	var rows []models.Category
	err := r.db.WithContext(ctx).
		Where("parent_id IS NULL AND is_active = ?", true).
		Order("name ASC").
		Find(&rows).Error
	return rows, err
}

// List pages through categories newest first.
func (r *Repository) List(ctx context.Context, offset, limit int, includeInactive bool) ([]models.Category, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.Category{})
	if !includeInactive {
		base = base.Where("is_active = ?", true)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Category
	if err := base.Session(&gorm.Session{}).
		Order("created_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
