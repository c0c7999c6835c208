package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// Service manages the signed-in user's cart. Lines are keyed by product.
type Service interface {
	Add(ctx context.Context, actor auth.Actor, input AddItemInput) (*ItemDTO, error)
	List(ctx context.Context, actor auth.Actor) ([]ItemDTO, error)
	UpdateQuantity(ctx context.Context, actor auth.Actor, productID uuid.UUID, quantity int) (*ItemDTO, error)
	Remove(ctx context.Context, actor auth.Actor, productID uuid.UUID) error
	Clear(ctx context.Context, actor auth.Actor) (int64, error)
	Count(ctx context.Context, actor auth.Actor) (int64, error)
	Total(ctx context.Context, actor auth.Actor) (*TotalDTO, error)
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Add(ctx context.Context, actor auth.Actor, input AddItemInput) (*ItemDTO, error) {
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "productId is required")
	}
	quantity := 1
	if input.Quantity != nil {
		quantity = *input.Quantity
	}
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be greater than 0")
	}

	product, err := s.repo.FindProduct(ctx, input.ProductID)
	if err != nil {
		return nil, mapStoreErr(err, "product not found", "load product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	if err := s.repo.AddQuantity(ctx, &models.CartItem{
		UserID:    actor.UserID,
		ProductID: product.ID,
		Quantity:  quantity,
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: add cart item")
	}
	return s.line(ctx, actor.UserID, product.ID)
}

func (s *service) List(ctx context.Context, actor auth.Actor) ([]ItemDTO, error) {
	rows, err := s.repo.List(ctx, actor.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list cart")
	}
	out := make([]ItemDTO, 0, len(rows))
	for i := range rows {
		out = append(out, fromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) UpdateQuantity(ctx context.Context, actor auth.Actor, productID uuid.UUID, quantity int) (*ItemDTO, error) {
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be greater than 0")
	}
	affected, err := s.repo.SetQuantity(ctx, actor.UserID, productID, quantity)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update cart item")
	}
	if affected == 0 {
		return nil, itemNotFound()
	}
	return s.line(ctx, actor.UserID, productID)
}

func (s *service) Remove(ctx context.Context, actor auth.Actor, productID uuid.UUID) error {
	affected, err := s.repo.Remove(ctx, actor.UserID, productID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: remove cart item")
	}
	if affected == 0 {
		return itemNotFound()
	}
	return nil
}

func (s *service) Clear(ctx context.Context, actor auth.Actor) (int64, error) {
	removed, err := s.repo.Clear(ctx, actor.UserID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: clear cart")
	}
	return removed, nil
}

func (s *service) Count(ctx context.Context, actor auth.Actor) (int64, error) {
	count, err := s.repo.Count(ctx, actor.UserID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: count cart")
	}
	return count, nil
}

func (s *service) Total(ctx context.Context, actor auth.Actor) (*TotalDTO, error) {
	items, err := s.List(ctx, actor)
	if err != nil {
		return nil, err
	}
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal)
	}
	return &TotalDTO{ItemCount: len(items), Total: total, Items: items}, nil
}

func (s *service) line(ctx context.Context, userID, productID uuid.UUID) (*ItemDTO, error) {
	item, err := s.repo.Find(ctx, userID, productID)
	if err != nil {
		return nil, mapStoreErr(err, "cart item not found", "load cart item")
	}
	dto := fromModel(item)
	return &dto, nil
}

func itemNotFound() error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
}

func mapStoreErr(err error, notFoundMsg, step string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFoundMsg)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: "+step)
}
