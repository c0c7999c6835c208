package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Repository persists orders, their items and status history.
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

func (r *Repository) FindAddress(ctx context.Context, id uuid.UUID) (*models.Address, error) {
	var address models.Address
	if err := r.db.WithContext(ctx).First(&address, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &address, nil
}

func (r *Repository) FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *Repository) FindVariant(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	if err := r.db.WithContext(ctx).First(&variant, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &variant, nil
}

func (r *Repository) FindCoupon(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := r.db.WithContext(ctx).First(&coupon, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}

// CreateOrder inserts the order row followed by its items and history.
func (r *Repository) CreateOrder(ctx context.Context, order *models.Order) error {
	conn := r.db.WithContext(ctx)
	if err := conn.Omit(clause.Associations).Create(order).Error; err != nil {
		return err
	}
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
	}
	if len(order.Items) > 0 {
		if err := conn.Omit(clause.Associations).Create(&order.Items).Error; err != nil {
			return err
		}
	}
	for i := range order.History {
		order.History[i].OrderID = order.ID
	}
	if len(order.History) > 0 {
		if err := conn.Create(&order.History).Error; err != nil {
			return err
		}
	}
	return nil
}

// DecrementProductStock subtracts qty only while enough stock remains. Zero
// rows affected means the stock moved underneath the caller.
func (r *Repository) DecrementProductStock(ctx context.Context, id uuid.UUID, qty int) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND quantity >= ?", id, qty).
		UpdateColumn("quantity", gorm.Expr("quantity - ?", qty))
	return res.RowsAffected, res.Error
}

func (r *Repository) DecrementVariantStock(ctx context.Context, id uuid.UUID, qty int) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ProductVariant{}).
		Where("id = ? AND quantity >= ?", id, qty).
		UpdateColumn("quantity", gorm.Expr("quantity - ?", qty))
	return res.RowsAffected, res.Error
}

// itemsInLineOrder returns order lines in the order they were requested.
func itemsInLineOrder(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC").Order("id ASC")
}

// FindOrder loads an order with every association the detail view needs.
func (r *Repository) FindOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", itemsInLineOrder).
		Preload("Items.Product").
		Preload("Items.Variant").
		Preload("History", func(db *gorm.DB) *gorm.DB { return db.Order("created_at DESC") }).
		Preload("Address").
		Preload("User").
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindOrderForUpdate loads the bare order row, locking it where the dialect
// supports row locks.
func (r *Repository) FindOrderForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	query := r.db.WithContext(ctx)
	if query.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := query.First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *Repository) AppendHistory(ctx context.Context, entry *models.OrderHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// ListByUser returns one page of a user's orders, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, offset, limit int) ([]models.Order, int64, error) {
	return r.list(r.db.WithContext(ctx).Where("user_id = ?", userID), offset, limit, false)
}

// ListAll returns one page of every order, optionally narrowed to a status.
func (r *Repository) ListAll(ctx context.Context, status *enums.OrderStatus, offset, limit int) ([]models.Order, int64, error) {
	query := r.db.WithContext(ctx)
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	return r.list(query, offset, limit, true)
}

func (r *Repository) list(query *gorm.DB, offset, limit int, withUser bool) ([]models.Order, int64, error) {
	var total int64
	if err := query.Session(&gorm.Session{}).Model(&models.Order{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := query.Session(&gorm.Session{}).
		Preload("Items", itemsInLineOrder).
		Preload("Items.Product").
		Preload("Items.Variant")
	if withUser {
		page = page.Preload("User")
	}
	var rows []models.Order
	err := page.Order("created_at DESC").Order("id DESC").Offset(offset).Limit(limit).Find(&rows).Error
	return rows, total, err
}
