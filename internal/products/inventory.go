package products

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// UpdateInventory sets stock levels in one transaction. A missing target or
// a foreign variant aborts the whole batch.
func (s *service) UpdateInventory(ctx context.Context, updates []InventoryUpdate) ([]InventoryResult, error) {
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "updates must be a non-empty array")
	}
	for i, u := range updates {
		if u.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "productId is required").
				WithDetails(map[string]any{"index": i})
		}
		if u.Quantity < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative").
				WithDetails(map[string]any{"index": i})
		}
	}

	results := make([]InventoryResult, 0, len(updates))
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		for _, u := range updates {
			if u.VariantID != nil {
				if _, err := s.ownedVariant(ctx, repo, u.ProductID, *u.VariantID); err != nil {
					return err
				}
				if _, err := repo.SetVariantStock(ctx, *u.VariantID, u.Quantity); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update variant stock")
				}
			} else {
				if _, err := repo.FindProduct(ctx, u.ProductID); err != nil {
					return mapStoreErr(err, "product not found", "db: load product")
				}
				if _, err := repo.SetProductStock(ctx, u.ProductID, u.Quantity); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update product stock")
				}
			}
			results = append(results, InventoryResult{ProductID: u.ProductID, VariantID: u.VariantID, Quantity: u.Quantity})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(updates))
	for _, u := range updates {
		ids = append(ids, u.ProductID)
	}
	s.cache.Invalidate(ctx, ids...)

	s.logg.Info(s.logg.WithField(ctx, "updates", len(updates)), "inventory updated")
	return results, nil
}
