package products

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// effectivePriceExpr mirrors models.Product.UnitPrice in SQL.
const effectivePriceExpr = "COALESCE(NULLIF(selling_price, 0), NULLIF(maximum_retail_price, 0), 0)"

// Repository handles product and variant persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to catalog operations.
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

func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Omit("Variants").Create(product).Error
}

func (r *Repository) SaveProduct(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Omit("Variants").Save(product).Error
}

func (r *Repository) FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *Repository) CategoryExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// CategoryRefs loads the summaries for the given category ids.
func (r *Repository) CategoryRefs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]CategoryRef, error) {
	refs := make(map[uuid.UUID]CategoryRef, len(ids))
	if len(ids) == 0 {
		return refs, nil
	}
	var rows []models.Category
	if err := r.db.WithContext(ctx).
		Select("id", "name", "slug").
		Where("id IN ?", ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, c := range rows {
		refs[c.ID] = CategoryRef{ID: c.ID, Name: c.Name, Slug: c.Slug}
	}
	return refs, nil
}

func (r *Repository) SetProductActive(ctx context.Context, id uuid.UUID, active bool) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Update("is_active", active)
	return res.RowsAffected, res.Error
}

// ProductOrdered reports whether any order line points at the product or one
// of its variants.
func (r *Repository) ProductOrdered(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Where("product_id = ?", id).
		Count(&count).Error
	return count > 0, err
}

// VariantOrdered reports whether any order line points at the variant.
func (r *Repository) VariantOrdered(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Where("variant_id = ?", id).
		Count(&count).Error
	return count > 0, err
}

// HardDeleteProduct removes the product row, its variants and any cart lines
// holding it.
func (r *Repository) HardDeleteProduct(ctx context.Context, id uuid.UUID) (int64, error) {
	if err := r.db.WithContext(ctx).Where("product_id = ?", id).Delete(&models.CartItem{}).Error; err != nil {
		return 0, err
	}
	if err := r.db.WithContext(ctx).Where("product_id = ?", id).Delete(&models.ProductVariant{}).Error; err != nil {
		return 0, err
	}
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{})
	return res.RowsAffected, res.Error
}

// ListProducts pages through products newest first.
func (r *Repository) ListProducts(ctx context.Context, filters ListFilters, offset, limit int) ([]models.Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Product{})

	switch {
	case filters.IsActive != nil:
		query = query.Where("is_active = ?", *filters.IsActive)
	case !filters.IncludeInactive:
		query = query.Where("is_active = ?", true)
	}
	if filters.CategoryID != nil {
		query = query.Where("(master_category_id = ? OR last_category_id = ?)", *filters.CategoryID, *filters.CategoryID)
	}
	if filters.IsFeatured != nil {
		query = query.Where("is_featured = ?", *filters.IsFeatured)
	}
	if filters.IsBestSelling != nil {
		query = query.Where("is_best_selling = ?", *filters.IsBestSelling)
	}
	if filters.IsNewCollection != nil {
		query = query.Where("is_new_collection = ?", *filters.IsNewCollection)
	}
	if filters.MinPrice != nil {
		query = query.Where(effectivePriceExpr+" >= ?", filters.MinPrice.InexactFloat64())
	}
	if filters.MaxPrice != nil {
		query = query.Where(effectivePriceExpr+" <= ?", filters.MaxPrice.InexactFloat64())
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Product
	if err := query.Session(&gorm.Session{}).
		Order("created_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ListFlagged returns active products with the given boolean column set.
func (r *Repository) ListFlagged(ctx context.Context, column string, limit int) ([]models.Product, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where(column+" = ?", true).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// Search matches query case-insensitively against name and descriptions.
func (r *Repository) Search(ctx context.Context, query string, limit int) ([]models.Product, error) {
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where(`(LOWER(product_name) LIKE ? ESCAPE '\' OR LOWER(COALESCE(short_desc, '')) LIKE ? ESCAPE '\' OR LOWER(COALESCE(long_desc, '')) LIKE ? ESCAPE '\')`,
			pattern, pattern, pattern).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func escapeLike(v string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(v)
}

func (r *Repository) CreateVariant(ctx context.Context, variant *models.ProductVariant) error {
	return r.db.WithContext(ctx).Create(variant).Error
}

func (r *Repository) SaveVariant(ctx context.Context, variant *models.ProductVariant) error {
	return r.db.WithContext(ctx).Save(variant).Error
}

func (r *Repository) FindVariant(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&variant).Error; err != nil {
		return nil, err
	}
	return &variant, nil
}

// SKUTaken reports whether a variant other than excludeID uses sku.
func (r *Repository) SKUTaken(ctx context.Context, sku string, excludeID *uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).Model(&models.ProductVariant{}).Where("sku = ?", sku)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ComboTaken reports whether another variant of the product has the same
// (color, size). NULL matches NULL.
func (r *Repository) ComboTaken(ctx context.Context, productID uuid.UUID, color, size *string, excludeID *uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).Model(&models.ProductVariant{}).Where("product_id = ?", productID)
	if color == nil {
		query = query.Where("color IS NULL")
	} else {
		query = query.Where("color = ?", *color)
	}
	if size == nil {
		query = query.Where("size IS NULL")
	} else {
		query = query.Where("size = ?", *size)
	}
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) SetVariantActive(ctx context.Context, id uuid.UUID, active bool) error {
	return r.db.WithContext(ctx).
		Model(&models.ProductVariant{}).
		Where("id = ?", id).
		Update("is_active", active).Error
}

func (r *Repository) DeleteVariant(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.ProductVariant{}).Error
}

// ListVariants returns the product's variants, default first then oldest.
func (r *Repository) ListVariants(ctx context.Context, productID uuid.UUID, filters VariantFilters) ([]models.ProductVariant, error) {
	query := r.db.WithContext(ctx).Where("product_id = ?", productID)
	if filters.Color != nil {
		query = query.Where("color = ?", *filters.Color)
	}
	if filters.Size != nil {
		query = query.Where("size = ?", *filters.Size)
	}
	if filters.IsActive != nil {
		query = query.Where("is_active = ?", *filters.IsActive)
	}
	if filters.MinPrice != nil {
		query = query.Where("selling_price >= ?", filters.MinPrice.InexactFloat64())
	}
	if filters.MaxPrice != nil {
		query = query.Where("selling_price <= ?", filters.MaxPrice.InexactFloat64())
	}
	var rows []models.ProductVariant
	err := query.Order("is_default DESC").Order("created_at ASC").Order("id ASC").Find(&rows).Error
	return rows, err
}

// DistinctVariantValues lists distinct non-null values of column over the
// product's active variants.
func (r *Repository) DistinctVariantValues(ctx context.Context, productID uuid.UUID, column string) ([]string, error) {
	var values []string
	err := r.db.WithContext(ctx).
		Model(&models.ProductVariant{}).
		Distinct(column).
		Where("product_id = ? AND is_active = ?", productID, true).
		Where(column+" IS NOT NULL AND "+column+" <> ''").
		Order(column+" ASC").
		Pluck(column, &values).Error
	return values, err
}

// SetProductStock overwrites a product's quantity.
func (r *Repository) SetProductStock(ctx context.Context, id uuid.UUID, quantity int) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		UpdateColumn("quantity", quantity)
	return res.RowsAffected, res.Error
}

func (r *Repository) SetVariantStock(ctx context.Context, id uuid.UUID, quantity int) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ProductVariant{}).
		Where("id = ?", id).
		UpdateColumn("quantity", quantity)
	return res.RowsAffected, res.Error
}
