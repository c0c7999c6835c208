package products

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// generated SKUs that collide are re-derived from the following millisecond
const skuAttempts = 5

func (s *service) GenerateSKU(ctx context.Context, productID uuid.UUID, color, size *string) (string, error) {
	product, err := s.repo.FindProduct(ctx, productID)
	if err != nil {
		return "", mapStoreErr(err, "product not found", "db: load product")
	}
	return BuildSKU(product.ProductName, color, size, s.clock()), nil
}

func (s *service) CreateVariant(ctx context.Context, productID uuid.UUID, input VariantInput) (*VariantDTO, error) {
	var created *models.ProductVariant
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		product, err := s.variantParent(ctx, repo, productID)
		if err != nil {
			return err
		}
		created, err = s.insertVariant(ctx, repo, product, input)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, productID)

	dto := variantFromModel(created)
	return &dto, nil
}

func (s *service) CreateVariants(ctx context.Context, productID uuid.UUID, inputs []VariantInput) ([]VariantDTO, error) {
	if len(inputs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one variant is required")
	}

	created := make([]models.ProductVariant, 0, len(inputs))
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		product, err := s.variantParent(ctx, repo, productID)
		if err != nil {
			return err
		}
		for i, in := range inputs {
			variant, err := s.insertVariant(ctx, repo, product, in)
			if err != nil {
				return withVariantIndex(err, i)
			}
			created = append(created, *variant)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, productID)
	return variantsFromModels(created), nil
}

func (s *service) UpdateVariant(ctx context.Context, productID, variantID uuid.UUID, input VariantInput) (*VariantDTO, error) {
	var updated *models.ProductVariant
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		updated, err = s.patchVariant(ctx, s.repo.WithTx(tx), productID, variantID, input)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, productID)

	dto := variantFromModel(updated)
	return &dto, nil
}

func (s *service) DeleteVariant(ctx context.Context, productID, variantID uuid.UUID) error {
	if _, err := s.ownedVariant(ctx, s.repo, productID, variantID); err != nil {
		return err
	}
	if err := s.repo.SetVariantActive(ctx, variantID, false); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: deactivate variant")
	}
	s.cache.Invalidate(ctx, productID)
	return nil
}

func (s *service) HardDeleteVariant(ctx context.Context, productID, variantID uuid.UUID) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := s.ownedVariant(ctx, repo, productID, variantID); err != nil {
			return err
		}
		ordered, err := repo.VariantOrdered(ctx, variantID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: check order lines")
		}
		if ordered {
			return errVariantOrdered
		}
		if err := repo.DeleteVariant(ctx, variantID); err != nil {
			if db.IsForeignKeyViolation(err) {
				return errVariantOrdered
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete variant")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.cache.Invalidate(ctx, productID)
	return nil
}

func (s *service) GetVariant(ctx context.Context, productID, variantID uuid.UUID) (*VariantDTO, error) {
	variant, err := s.ownedVariant(ctx, s.repo, productID, variantID)
	if err != nil {
		return nil, err
	}
	dto := variantFromModel(variant)
	return &dto, nil
}

func (s *service) ListVariants(ctx context.Context, productID uuid.UUID, filters VariantFilters) ([]VariantDTO, error) {
	if _, err := s.repo.FindProduct(ctx, productID); err != nil {
		return nil, mapStoreErr(err, "product not found", "db: load product")
	}
	rows, err := s.repo.ListVariants(ctx, productID, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list variants")
	}
	return variantsFromModels(rows), nil
}

func (s *service) AvailableColors(ctx context.Context, productID uuid.UUID) ([]string, error) {
	return s.distinct(ctx, productID, "color")
}

func (s *service) AvailableSizes(ctx context.Context, productID uuid.UUID) ([]string, error) {
	return s.distinct(ctx, productID, "size")
}

func (s *service) distinct(ctx context.Context, productID uuid.UUID, column string) ([]string, error) {
	values, err := s.repo.DistinctVariantValues(ctx, productID, column)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list variant "+column+"s")
	}
	if values == nil {
		values = []string{}
	}
	return values, nil
}

// variantParent loads a product that accepts variants.
func (s *service) variantParent(ctx context.Context, repo *Repository, productID uuid.UUID) (*models.Product, error) {
	product, err := repo.FindProduct(ctx, productID)
	if err != nil {
		return nil, mapStoreErr(err, "product not found", "db: load product")
	}
	if !product.HasVariants {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product does not support variants; set hasVariants to true first")
	}
	return product, nil
}

func (s *service) ownedVariant(ctx context.Context, repo *Repository, productID, variantID uuid.UUID) (*models.ProductVariant, error) {
	variant, err := repo.FindVariant(ctx, variantID)
	if err != nil {
		return nil, mapStoreErr(err, "variant not found", "db: load variant")
	}
	if variant.ProductID != productID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant does not belong to this product")
	}
	return variant, nil
}

// insertVariant runs the SKU and (color, size) checks and inserts the row.
func (s *service) insertVariant(ctx context.Context, repo *Repository, product *models.Product, in VariantInput) (*models.ProductVariant, error) {
	if err := validateVariant(in); err != nil {
		return nil, err
	}
	color, size := blankToNil(in.Color), blankToNil(in.Size)

	sku, err := s.pickSKU(ctx, repo, product.ProductName, in.SKU, color, size)
	if err != nil {
		return nil, err
	}

	taken, err := repo.ComboTaken(ctx, product.ID, color, size, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: check variant attributes")
	}
	if taken {
		return nil, comboConflict(color, size)
	}

	variant := in.newVariant(product.ID, sku)
	if err := repo.CreateVariant(ctx, variant); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, skuConflict(sku)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create variant")
	}
	return variant, nil
}

// pickSKU returns the supplied SKU when free, or derives one.
func (s *service) pickSKU(ctx context.Context, repo *Repository, productName string, supplied, color, size *string) (string, error) {
	if supplied != nil && strings.TrimSpace(*supplied) != "" {
		sku := strings.TrimSpace(*supplied)
		taken, err := repo.SKUTaken(ctx, sku, nil)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: check sku")
		}
		if taken {
			return "", skuConflict(sku)
		}
		return sku, nil
	}

	now := s.clock()
	var sku string
	for attempt := 0; attempt < skuAttempts; attempt++ {
		sku = BuildSKU(productName, color, size, now.Add(time.Duration(attempt)*time.Millisecond))
		taken, err := repo.SKUTaken(ctx, sku, nil)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: check sku")
		}
		if !taken {
			return sku, nil
		}
	}
	return "", skuConflict(sku)
}

// patchVariant applies a partial update to a variant owned by productID.
func (s *service) patchVariant(ctx context.Context, repo *Repository, productID, variantID uuid.UUID, in VariantInput) (*models.ProductVariant, error) {
	variant, err := s.ownedVariant(ctx, repo, productID, variantID)
	if err != nil {
		return nil, err
	}
	if err := validateVariant(in); err != nil {
		return nil, err
	}

	if in.SKU != nil {
		sku := strings.TrimSpace(*in.SKU)
		if sku == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku cannot be empty")
		}
		if sku != variant.SKU {
			taken, err := repo.SKUTaken(ctx, sku, &variant.ID)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: check sku")
			}
			if taken {
				return nil, skuConflict(sku)
			}
		}
		in.SKU = &sku
	}

	if in.Color != nil || in.Size != nil {
		color, size := variant.Color, variant.Size
		if in.Color != nil {
			color = blankToNil(in.Color)
		}
		if in.Size != nil {
			size = blankToNil(in.Size)
		}
		taken, err := repo.ComboTaken(ctx, productID, color, size, &variant.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: check variant attributes")
		}
		if taken {
			return nil, comboConflict(color, size)
		}
	}

	in.apply(variant)
	if err := repo.SaveVariant(ctx, variant); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, skuConflict(variant.SKU)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update variant")
	}
	return variant, nil
}

func validateVariant(in VariantInput) error {
	if in.Quantity != nil && *in.Quantity < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}
	if in.LowStockAlert != nil && *in.LowStockAlert < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "lowStockAlert cannot be negative")
	}
	return nonNegativePrices(in.BuyingPrice, in.MaximumRetailPrice, in.SellingPrice)
}

func skuConflict(sku string) error {
	return pkgerrors.Newf(pkgerrors.CodeConflict, "SKU %s already exists", sku).
		WithDetails(map[string]any{"sku": sku})
}

func comboConflict(color, size *string) error {
	return pkgerrors.Newf(pkgerrors.CodeConflict, "variant with color %q and size %q already exists", deref(color), deref(size)).
		WithDetails(map[string]any{"color": color, "size": size})
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
