package products

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

const defaultSpecialLimit = 10

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes the product and variant catalog.
type Service interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	CreateProductWithVariants(ctx context.Context, input CreateWithVariantsInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	UpdateProductWithVariants(ctx context.Context, id uuid.UUID, input UpdateWithVariantsInput) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	HardDeleteProduct(ctx context.Context, id uuid.UUID) error
	UpdateInventory(ctx context.Context, updates []InventoryUpdate) ([]InventoryResult, error)

	GetProduct(ctx context.Context, id uuid.UUID, includeInactive bool) (*ProductDTO, error)
	ListProducts(ctx context.Context, page pagination.Params, filters ListFilters) (types.PageEnvelope[ProductDTO], error)
	GetFeatured(ctx context.Context, limit int) ([]ProductDTO, error)
	GetBestSelling(ctx context.Context, limit int) ([]ProductDTO, error)
	GetNewCollection(ctx context.Context, limit int) ([]ProductDTO, error)
	GetByCategory(ctx context.Context, categoryID uuid.UUID, page pagination.Params) (types.PageEnvelope[ProductDTO], error)
	Search(ctx context.Context, query string, limit int) ([]ProductDTO, error)

	GenerateSKU(ctx context.Context, productID uuid.UUID, color, size *string) (string, error)
	CreateVariant(ctx context.Context, productID uuid.UUID, input VariantInput) (*VariantDTO, error)
	CreateVariants(ctx context.Context, productID uuid.UUID, inputs []VariantInput) ([]VariantDTO, error)
	UpdateVariant(ctx context.Context, productID, variantID uuid.UUID, input VariantInput) (*VariantDTO, error)
	DeleteVariant(ctx context.Context, productID, variantID uuid.UUID) error
	HardDeleteVariant(ctx context.Context, productID, variantID uuid.UUID) error
	GetVariant(ctx context.Context, productID, variantID uuid.UUID) (*VariantDTO, error)
	ListVariants(ctx context.Context, productID uuid.UUID, filters VariantFilters) ([]VariantDTO, error)
	AvailableColors(ctx context.Context, productID uuid.UUID) ([]string, error)
	AvailableSizes(ctx context.Context, productID uuid.UUID) ([]string, error)
}

// ServiceParams wires the catalog service. Cache and Logger are optional.
type ServiceParams struct {
	Repo             *Repository
	Tx               txRunner
	Cache            *ProductCache
	Logger           *logger.Logger
	SpecialListLimit int
	Clock            func() time.Time
}

type service struct {
	repo         *Repository
	tx           txRunner
	cache        *ProductCache
	logg         *logger.Logger
	specialLimit int
	clock        func() time.Time
}

// NewService builds the catalog service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	limit := params.SpecialListLimit
	if limit <= 0 {
		limit = defaultSpecialLimit
	}
	return &service{
		repo:         params.Repo,
		tx:           params.Tx,
		cache:        params.Cache,
		logg:         logg,
		specialLimit: limit,
		clock:        clock,
	}, nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	if err := validateCreateProduct(input); err != nil {
		return nil, err
	}
	if err := s.ensureCategories(ctx, s.repo, &input.MasterCategoryID, input.LastCategoryID); err != nil {
		return nil, err
	}

	product := input.toModel()
	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create product")
	}
	s.cache.Invalidate(ctx, product.ID)

	dto := productFromModel(product)
	return &dto, nil
}

func (s *service) CreateProductWithVariants(ctx context.Context, input CreateWithVariantsInput) (*ProductDTO, error) {
	if len(input.Variants) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one variant is required")
	}
	if err := validateCreateProduct(input.Product); err != nil {
		return nil, err
	}

	var created *models.Product
	var variants []models.ProductVariant
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := s.ensureCategories(ctx, repo, &input.Product.MasterCategoryID, input.Product.LastCategoryID); err != nil {
			return err
		}

		product := input.Product.toModel()
		product.HasVariants = true
		product.Quantity = 0
		if err := repo.CreateProduct(ctx, product); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create product")
		}

		for i, in := range input.Variants {
			variant, err := s.insertVariant(ctx, repo, product, in)
			if err != nil {
				return withVariantIndex(err, i)
			}
			variants = append(variants, *variant)
		}
		created = product
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, created.ID)

	dto := productFromModel(created)
	dto.Variants = variantsFromModels(variants)
	return &dto, nil
}

func (s *service) UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	if err := validateUpdateProduct(input); err != nil {
		return nil, err
	}

	var updated *models.Product
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		product, err := s.patchProduct(ctx, repo, id, input)
		if err != nil {
			return err
		}
		updated = product
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, id)

	dto := productFromModel(updated)
	return &dto, nil
}

func (s *service) UpdateProductWithVariants(ctx context.Context, id uuid.UUID, input UpdateWithVariantsInput) (*ProductDTO, error) {
	if err := validateUpdateProduct(input.Product); err != nil {
		return nil, err
	}

	var updated *models.Product
	var variants []models.ProductVariant
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		product, err := s.patchProduct(ctx, repo, id, input.Product)
		if err != nil {
			return err
		}

		for i, in := range input.Variants {
			if in.ID != nil {
				if _, err := s.patchVariant(ctx, repo, id, *in.ID, in); err != nil {
					return withVariantIndex(err, i)
				}
				continue
			}
			if _, err := s.insertVariant(ctx, repo, product, in); err != nil {
				return withVariantIndex(err, i)
			}
			if !product.HasVariants {
				product.HasVariants = true
				if err := repo.SaveProduct(ctx, product); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update product")
				}
			}
		}

		for _, variantID := range input.DeleteVariantIDs {
			if _, err := s.ownedVariant(ctx, repo, id, variantID); err != nil {
				return err
			}
			if err := repo.SetVariantActive(ctx, variantID, false); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: deactivate variant")
			}
		}

		rows, err := repo.ListVariants(ctx, id, VariantFilters{})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list variants")
		}
		updated = product
		variants = rows
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, id)

	dto := productFromModel(updated)
	dto.Variants = variantsFromModels(variants)
	return &dto, nil
}

func (s *service) patchProduct(ctx context.Context, repo *Repository, id uuid.UUID, input UpdateProductInput) (*models.Product, error) {
	product, err := repo.FindProduct(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err, "product not found", "db: load product")
	}
	if err := s.ensureCategories(ctx, repo, input.MasterCategoryID, input.LastCategoryID); err != nil {
		return nil, err
	}
	input.apply(product)
	if err := repo.SaveProduct(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update product")
	}
	return product, nil
}

func (s *service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	affected, err := s.repo.SetProductActive(ctx, id, false)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: deactivate product")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	s.cache.Invalidate(ctx, id)
	return nil
}

var (
	errProductOrdered = pkgerrors.New(pkgerrors.CodeConflict, "product is referenced by existing orders; deactivate it instead")
	errVariantOrdered = pkgerrors.New(pkgerrors.CodeConflict, "variant is referenced by existing orders; deactivate it instead")
)

func (s *service) HardDeleteProduct(ctx context.Context, id uuid.UUID) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindProduct(ctx, id); err != nil {
			return mapStoreErr(err, "product not found", "db: load product")
		}
		ordered, err := repo.ProductOrdered(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: check order lines")
		}
		if ordered {
			return errProductOrdered
		}
		if _, err := repo.HardDeleteProduct(ctx, id); err != nil {
			if db.IsForeignKeyViolation(err) {
				return errProductOrdered
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete product")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.cache.Invalidate(ctx, id)
	return nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID, includeInactive bool) (*ProductDTO, error) {
	dto, lookup := s.cache.get(ctx, id)
	switch lookup {
	case lookupNegative:
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	case lookupMiss:
		gen := s.cache.generation(ctx, id)
		loaded, err := s.loadProduct(ctx, id)
		if err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
				s.cache.putMiss(ctx, id, gen)
			}
			return nil, err
		}
		s.cache.put(ctx, loaded, gen)
		dto = loaded
	}

	if !dto.IsActive && !includeInactive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return dto, nil
}

func (s *service) loadProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindProduct(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err, "product not found", "db: load product")
	}
	dtos, err := s.decorate(ctx, []models.Product{*product})
	if err != nil {
		return nil, err
	}
	dto := dtos[0]

	if product.HasVariants {
		active := true
		rows, err := s.repo.ListVariants(ctx, id, VariantFilters{IsActive: &active})
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list variants")
		}
		dto.Variants = variantsFromModels(rows)
	}
	return &dto, nil
}

func (s *service) ListProducts(ctx context.Context, page pagination.Params, filters ListFilters) (types.PageEnvelope[ProductDTO], error) {
	page = page.Normalize()
	if filters.MinPrice != nil && filters.MaxPrice != nil && filters.MinPrice.GreaterThan(*filters.MaxPrice) {
		return types.PageEnvelope[ProductDTO]{}, pkgerrors.New(pkgerrors.CodeValidation, "minPrice cannot exceed maxPrice")
	}
	rows, total, err := s.repo.ListProducts(ctx, filters, page.Offset(), page.Limit)
	if err != nil {
		return types.PageEnvelope[ProductDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list products")
	}
	items, err := s.decorate(ctx, rows)
	if err != nil {
		return types.PageEnvelope[ProductDTO]{}, err
	}
	return pagination.NewPage(items, page, total), nil
}

func (s *service) GetFeatured(ctx context.Context, limit int) ([]ProductDTO, error) {
	return s.flagged(ctx, "is_featured", limit)
}

func (s *service) GetBestSelling(ctx context.Context, limit int) ([]ProductDTO, error) {
	return s.flagged(ctx, "is_best_selling", limit)
}

func (s *service) GetNewCollection(ctx context.Context, limit int) ([]ProductDTO, error) {
	return s.flagged(ctx, "is_new_collection", limit)
}

func (s *service) flagged(ctx context.Context, column string, limit int) ([]ProductDTO, error) {
	rows, err := s.repo.ListFlagged(ctx, column, s.listLimit(limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list "+strings.TrimPrefix(column, "is_")+" products")
	}
	return s.decorate(ctx, rows)
}

func (s *service) GetByCategory(ctx context.Context, categoryID uuid.UUID, page pagination.Params) (types.PageEnvelope[ProductDTO], error) {
	return s.ListProducts(ctx, page, ListFilters{CategoryID: &categoryID})
}

func (s *service) Search(ctx context.Context, query string, limit int) ([]ProductDTO, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "search query is required")
	}
	rows, err := s.repo.Search(ctx, query, s.listLimit(limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: search products")
	}
	return s.decorate(ctx, rows)
}

func (s *service) listLimit(limit int) int {
	if limit <= 0 {
		return s.specialLimit
	}
	return pagination.NormalizeLimit(limit)
}

// decorate converts rows to DTOs with their category summaries.
func (s *service) decorate(ctx context.Context, rows []models.Product) ([]ProductDTO, error) {
	seen := make(map[uuid.UUID]struct{})
	ids := make([]uuid.UUID, 0, len(rows)*2)
	add := func(id uuid.UUID) {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	for _, p := range rows {
		add(p.MasterCategoryID)
		if p.LastCategoryID != nil {
			add(*p.LastCategoryID)
		}
	}
	refs, err := s.repo.CategoryRefs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load categories")
	}

	out := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		dto := productFromModel(&rows[i])
		if ref, ok := refs[rows[i].MasterCategoryID]; ok {
			dto.MasterCategory = &ref
		}
		if rows[i].LastCategoryID != nil {
			if ref, ok := refs[*rows[i].LastCategoryID]; ok {
				dto.LastCategory = &ref
			}
		}
		out = append(out, dto)
	}
	return out, nil
}

func (s *service) ensureCategories(ctx context.Context, repo *Repository, ids ...*uuid.UUID) error {
	for _, id := range ids {
		if id == nil {
			continue
		}
		ok, err := repo.CategoryExists(ctx, *id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load category")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeNotFound, "category not found").
				WithDetails(map[string]any{"categoryId": id.String()})
		}
	}
	return nil
}

func validateCreateProduct(in CreateProductInput) error {
	if strings.TrimSpace(in.ProductName) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "productName is required")
	}
	if strings.TrimSpace(in.MainImage) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "mainImage is required")
	}
	if in.MasterCategoryID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "masterCategoryId is required")
	}
	if in.Quantity < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}
	return nonNegativePrices(in.BuyingPrice, in.MaximumRetailPrice, in.SellingPrice)
}

func validateUpdateProduct(in UpdateProductInput) error {
	if in.ProductName != nil && strings.TrimSpace(*in.ProductName) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "productName cannot be empty")
	}
	if in.MainImage != nil && strings.TrimSpace(*in.MainImage) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "mainImage cannot be empty")
	}
	if in.Quantity != nil && *in.Quantity < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}
	return nonNegativePrices(in.BuyingPrice, in.MaximumRetailPrice, in.SellingPrice)
}

func nonNegativePrices(prices ...*decimal.Decimal) error {
	for _, p := range prices {
		if p != nil && p.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "prices cannot be negative")
		}
	}
	return nil
}

func blankToNil(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func mapStoreErr(err error, notFound, step string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFound)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, step)
}

// withVariantIndex tags a typed error with the offending batch position.
func withVariantIndex(err error, index int) error {
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() == pkgerrors.CodeDependency {
		return err
	}
	details := map[string]any{"variantIndex": index}
	if existing, ok := typed.Details().(map[string]any); ok {
		for k, v := range existing {
			details[k] = v
		}
	}
	return pkgerrors.New(typed.Code(), typed.Message()).WithDetails(details)
}
