package products

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	dbtypes "github.com/angelmondragon/storefront-backend/pkg/db/types"
)

// CreateProductInput is the admin payload for a new product.
type CreateProductInput struct {
	ProductName        string           `json:"productName" validate:"required,max=255"`
	ShortDesc          *string          `json:"shortDesc,omitempty"`
	LongDesc           *string          `json:"longDesc,omitempty"`
	MainImage          string           `json:"mainImage" validate:"required"`
	ProductImages      []string         `json:"productImages,omitempty"`
	YoutubeLink        *string          `json:"youtubeLink,omitempty" validate:"omitempty,url"`
	Size               *string          `json:"size,omitempty"`
	ExpiryDate         *time.Time       `json:"expiryDate,omitempty"`
	BuyingPrice        *decimal.Decimal `json:"buyingPrice,omitempty"`
	MaximumRetailPrice *decimal.Decimal `json:"maximumRetailPrice,omitempty"`
	SellingPrice       *decimal.Decimal `json:"sellingPrice,omitempty"`
	Quantity           int              `json:"quantity" validate:"gte=0"`
	PaymentType        *string          `json:"paymentType,omitempty"`
	Dimensions         map[string]any   `json:"dimensions,omitempty"`
	MetaData           map[string]any   `json:"metaData,omitempty"`
	MasterCategoryID   uuid.UUID        `json:"masterCategoryId" validate:"required"`
	LastCategoryID     *uuid.UUID       `json:"lastCategoryId,omitempty"`
	IsFeatured         bool             `json:"isFeatured"`
	IsBestSelling      bool             `json:"isBestSelling"`
	IsNewCollection    bool             `json:"isNewCollection"`
	IsRelatedItem      bool             `json:"isRelatedItem"`
}

// UpdateProductInput is a partial patch; nil fields are left untouched.
type UpdateProductInput struct {
	ProductName        *string          `json:"productName,omitempty" validate:"omitempty,min=1,max=255"`
	ShortDesc          *string          `json:"shortDesc,omitempty"`
	LongDesc           *string          `json:"longDesc,omitempty"`
	MainImage          *string          `json:"mainImage,omitempty" validate:"omitempty,min=1"`
	ProductImages      *[]string        `json:"productImages,omitempty"`
	YoutubeLink        *string          `json:"youtubeLink,omitempty"`
	Size               *string          `json:"size,omitempty"`
	ExpiryDate         *time.Time       `json:"expiryDate,omitempty"`
	BuyingPrice        *decimal.Decimal `json:"buyingPrice,omitempty"`
	MaximumRetailPrice *decimal.Decimal `json:"maximumRetailPrice,omitempty"`
	SellingPrice       *decimal.Decimal `json:"sellingPrice,omitempty"`
	Quantity           *int             `json:"quantity,omitempty" validate:"omitempty,gte=0"`
	PaymentType        *string          `json:"paymentType,omitempty"`
	Dimensions         map[string]any   `json:"dimensions,omitempty"`
	MetaData           map[string]any   `json:"metaData,omitempty"`
	MasterCategoryID   *uuid.UUID       `json:"masterCategoryId,omitempty"`
	LastCategoryID     *uuid.UUID       `json:"lastCategoryId,omitempty"`
	IsFeatured         *bool            `json:"isFeatured,omitempty"`
	IsBestSelling      *bool            `json:"isBestSelling,omitempty"`
	IsNewCollection    *bool            `json:"isNewCollection,omitempty"`
	IsRelatedItem      *bool            `json:"isRelatedItem,omitempty"`
	HasVariants        *bool            `json:"hasVariants,omitempty"`
	IsActive           *bool            `json:"isActive,omitempty"`
}

// VariantInput serves both create and patch. On create, nil fields take
// their defaults; on update they are left untouched. ID is only read by
// UpdateProductWithVariants to tell updates from inserts.
type VariantInput struct {
	ID                 *uuid.UUID       `json:"id,omitempty"`
	SKU                *string          `json:"sku,omitempty" validate:"omitempty,min=1,max=64"`
	VariantName        *string          `json:"variantName,omitempty"`
	Color              *string          `json:"color,omitempty"`
	Size               *string          `json:"size,omitempty"`
	Dimensions         map[string]any   `json:"dimensions,omitempty"`
	Attributes         map[string]any   `json:"attributes,omitempty"`
	VariantImages      *[]string        `json:"variantImages,omitempty"`
	VariantDescription *string          `json:"variantDescription,omitempty"`
	BuyingPrice        *decimal.Decimal `json:"buyingPrice,omitempty"`
	MaximumRetailPrice *decimal.Decimal `json:"maximumRetailPrice,omitempty"`
	SellingPrice       *decimal.Decimal `json:"sellingPrice,omitempty"`
	Quantity           *int             `json:"quantity,omitempty" validate:"omitempty,gte=0"`
	LowStockAlert      *int             `json:"lowStockAlert,omitempty" validate:"omitempty,gte=0"`
	ExpiryDate         *time.Time       `json:"expiryDate,omitempty"`
	HasCashOnDelivery  *bool            `json:"hasCashOnDelivery,omitempty"`
	IsRelatedItem      *bool            `json:"isRelatedItem,omitempty"`
	IsDefault          *bool            `json:"isDefault,omitempty"`
	IsActive           *bool            `json:"isActive,omitempty"`
}

// CreateWithVariantsInput creates a product and its variants atomically.
type CreateWithVariantsInput struct {
	Product  CreateProductInput `json:"product" validate:"required"`
	Variants []VariantInput     `json:"variants" validate:"required,min=1,dive"`
}

// UpdateWithVariantsInput patches a product and upserts/soft-deletes its
// variants atomically.
type UpdateWithVariantsInput struct {
	Product          UpdateProductInput `json:"product"`
	Variants         []VariantInput     `json:"variants,omitempty" validate:"omitempty,dive"`
	DeleteVariantIDs []uuid.UUID        `json:"deleteVariantIds,omitempty"`
}

// InventoryUpdate sets the stock of a product, or of one of its variants when
// VariantID is present.
type InventoryUpdate struct {
	ProductID uuid.UUID  `json:"productId" validate:"required"`
	VariantID *uuid.UUID `json:"variantId,omitempty"`
	Quantity  int        `json:"quantity"`
}

// ListFilters narrows the product listing.
type ListFilters struct {
	CategoryID      *uuid.UUID
	IsFeatured      *bool
	IsBestSelling   *bool
	IsNewCollection *bool
	IsActive        *bool
	IncludeInactive bool
	MinPrice        *decimal.Decimal
	MaxPrice        *decimal.Decimal
}

// VariantFilters narrows the variant listing of one product.
type VariantFilters struct {
	Color    *string
	Size     *string
	IsActive *bool
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
}

// CategoryRef is the category summary embedded in product payloads.
type CategoryRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug *string   `json:"slug,omitempty"`
}

// ProductDTO is the API shape of a product.
type ProductDTO struct {
	ID                 uuid.UUID        `json:"id"`
	ProductName        string           `json:"productName"`
	ShortDesc          *string          `json:"shortDesc,omitempty"`
	LongDesc           *string          `json:"longDesc,omitempty"`
	MainImage          string           `json:"mainImage"`
	ProductImages      []string         `json:"productImages"`
	YoutubeLink        *string          `json:"youtubeLink,omitempty"`
	Size               *string          `json:"size,omitempty"`
	ExpiryDate         *time.Time       `json:"expiryDate,omitempty"`
	BuyingPrice        *decimal.Decimal `json:"buyingPrice,omitempty"`
	MaximumRetailPrice *decimal.Decimal `json:"maximumRetailPrice,omitempty"`
	SellingPrice       *decimal.Decimal `json:"sellingPrice,omitempty"`
	EffectivePrice     decimal.Decimal  `json:"effectivePrice"`
	Quantity           int              `json:"quantity"`
	PaymentType        *string          `json:"paymentType,omitempty"`
	Dimensions         map[string]any   `json:"dimensions,omitempty"`
	MetaData           map[string]any   `json:"metaData,omitempty"`
	MasterCategoryID   uuid.UUID        `json:"masterCategoryId"`
	LastCategoryID     *uuid.UUID       `json:"lastCategoryId,omitempty"`
	MasterCategory     *CategoryRef     `json:"masterCategory,omitempty"`
	LastCategory       *CategoryRef     `json:"lastCategory,omitempty"`
	IsFeatured         bool             `json:"isFeatured"`
	IsBestSelling      bool             `json:"isBestSelling"`
	IsNewCollection    bool             `json:"isNewCollection"`
	IsRelatedItem      bool             `json:"isRelatedItem"`
	HasVariants        bool             `json:"hasVariants"`
	IsActive           bool             `json:"isActive"`
	Variants           []VariantDTO     `json:"variants,omitempty"`
	CreatedAt          time.Time        `json:"createdAt"`
	UpdatedAt          time.Time        `json:"updatedAt"`
}

// VariantDTO is the API shape of a product variant.
type VariantDTO struct {
	ID                 uuid.UUID        `json:"id"`
	ProductID          uuid.UUID        `json:"productId"`
	SKU                string           `json:"sku"`
	VariantName        *string          `json:"variantName,omitempty"`
	Color              *string          `json:"color,omitempty"`
	Size               *string          `json:"size,omitempty"`
	Dimensions         map[string]any   `json:"dimensions,omitempty"`
	Attributes         map[string]any   `json:"attributes,omitempty"`
	VariantImages      []string         `json:"variantImages"`
	VariantDescription *string          `json:"variantDescription,omitempty"`
	BuyingPrice        *decimal.Decimal `json:"buyingPrice,omitempty"`
	MaximumRetailPrice *decimal.Decimal `json:"maximumRetailPrice,omitempty"`
	SellingPrice       *decimal.Decimal `json:"sellingPrice,omitempty"`
	EffectivePrice     decimal.Decimal  `json:"effectivePrice"`
	Quantity           int              `json:"quantity"`
	LowStockAlert      int              `json:"lowStockAlert"`
	ExpiryDate         *time.Time       `json:"expiryDate,omitempty"`
	HasCashOnDelivery  bool             `json:"hasCashOnDelivery"`
	IsRelatedItem      bool             `json:"isRelatedItem"`
	IsDefault          bool             `json:"isDefault"`
	IsActive           bool             `json:"isActive"`
	CreatedAt          time.Time        `json:"createdAt"`
	UpdatedAt          time.Time        `json:"updatedAt"`
}

// InventoryResult reports the stock after an inventory update.
type InventoryResult struct {
	ProductID uuid.UUID  `json:"productId"`
	VariantID *uuid.UUID `json:"variantId,omitempty"`
	Quantity  int        `json:"quantity"`
}

func productFromModel(p *models.Product) ProductDTO {
	images := []string(p.ProductImages)
	if images == nil {
		images = []string{}
	}
	return ProductDTO{
		ID:                 p.ID,
		ProductName:        p.ProductName,
		ShortDesc:          p.ShortDesc,
		LongDesc:           p.LongDesc,
		MainImage:          p.MainImage,
		ProductImages:      images,
		YoutubeLink:        p.YoutubeLink,
		Size:               p.Size,
		ExpiryDate:         p.ExpiryDate,
		BuyingPrice:        p.BuyingPrice,
		MaximumRetailPrice: p.MaximumRetailPrice,
		SellingPrice:       p.SellingPrice,
		EffectivePrice:     p.UnitPrice(),
		Quantity:           p.Quantity,
		PaymentType:        p.PaymentType,
		Dimensions:         map[string]any(p.Dimensions),
		MetaData:           map[string]any(p.MetaData),
		MasterCategoryID:   p.MasterCategoryID,
		LastCategoryID:     p.LastCategoryID,
		IsFeatured:         p.IsFeatured,
		IsBestSelling:      p.IsBestSelling,
		IsNewCollection:    p.IsNewCollection,
		IsRelatedItem:      p.IsRelatedItem,
		HasVariants:        p.HasVariants,
		IsActive:           p.IsActive,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}

func variantFromModel(v *models.ProductVariant) VariantDTO {
	images := []string(v.VariantImages)
	if images == nil {
		images = []string{}
	}
	return VariantDTO{
		ID:                 v.ID,
		ProductID:          v.ProductID,
		SKU:                v.SKU,
		VariantName:        v.VariantName,
		Color:              v.Color,
		Size:               v.Size,
		Dimensions:         map[string]any(v.Dimensions),
		Attributes:         map[string]any(v.Attributes),
		VariantImages:      images,
		VariantDescription: v.VariantDescription,
		BuyingPrice:        v.BuyingPrice,
		MaximumRetailPrice: v.MaximumRetailPrice,
		SellingPrice:       v.SellingPrice,
		EffectivePrice:     v.UnitPrice(),
		Quantity:           v.Quantity,
		LowStockAlert:      v.LowStockAlert,
		ExpiryDate:         v.ExpiryDate,
		HasCashOnDelivery:  v.HasCashOnDelivery,
		IsRelatedItem:      v.IsRelatedItem,
		IsDefault:          v.IsDefault,
		IsActive:           v.IsActive,
		CreatedAt:          v.CreatedAt,
		UpdatedAt:          v.UpdatedAt,
	}
}

func variantsFromModels(rows []models.ProductVariant) []VariantDTO {
	out := make([]VariantDTO, 0, len(rows))
	for i := range rows {
		out = append(out, variantFromModel(&rows[i]))
	}
	return out
}

func (in CreateProductInput) toModel() *models.Product {
	return &models.Product{
		ProductName:        in.ProductName,
		ShortDesc:          in.ShortDesc,
		LongDesc:           in.LongDesc,
		MainImage:          in.MainImage,
		ProductImages:      dbtypes.StringList(in.ProductImages),
		YoutubeLink:        in.YoutubeLink,
		Size:               in.Size,
		ExpiryDate:         in.ExpiryDate,
		BuyingPrice:        in.BuyingPrice,
		MaximumRetailPrice: in.MaximumRetailPrice,
		SellingPrice:       in.SellingPrice,
		Quantity:           in.Quantity,
		PaymentType:        in.PaymentType,
		Dimensions:         dbtypes.JSONMap(in.Dimensions),
		MetaData:           dbtypes.JSONMap(in.MetaData),
		MasterCategoryID:   in.MasterCategoryID,
		LastCategoryID:     in.LastCategoryID,
		IsFeatured:         in.IsFeatured,
		IsBestSelling:      in.IsBestSelling,
		IsNewCollection:    in.IsNewCollection,
		IsRelatedItem:      in.IsRelatedItem,
		IsActive:           true,
	}
}

// apply copies the non-nil patch fields onto p.
func (in UpdateProductInput) apply(p *models.Product) {
	if in.ProductName != nil {
		p.ProductName = *in.ProductName
	}
	if in.ShortDesc != nil {
		p.ShortDesc = in.ShortDesc
	}
	if in.LongDesc != nil {
		p.LongDesc = in.LongDesc
	}
	if in.MainImage != nil {
		p.MainImage = *in.MainImage
	}
	if in.ProductImages != nil {
		p.ProductImages = dbtypes.StringList(*in.ProductImages)
	}
	if in.YoutubeLink != nil {
		p.YoutubeLink = in.YoutubeLink
	}
	if in.Size != nil {
		p.Size = in.Size
	}
	if in.ExpiryDate != nil {
		p.ExpiryDate = in.ExpiryDate
	}
	if in.BuyingPrice != nil {
		p.BuyingPrice = in.BuyingPrice
	}
	if in.MaximumRetailPrice != nil {
		p.MaximumRetailPrice = in.MaximumRetailPrice
	}
	if in.SellingPrice != nil {
		p.SellingPrice = in.SellingPrice
	}
	if in.Quantity != nil {
		p.Quantity = *in.Quantity
	}
	if in.PaymentType != nil {
		p.PaymentType = in.PaymentType
	}
	if in.Dimensions != nil {
		p.Dimensions = dbtypes.JSONMap(in.Dimensions)
	}
	if in.MetaData != nil {
		p.MetaData = dbtypes.JSONMap(in.MetaData)
	}
	if in.MasterCategoryID != nil {
		p.MasterCategoryID = *in.MasterCategoryID
	}
	if in.LastCategoryID != nil {
		p.LastCategoryID = in.LastCategoryID
	}
	if in.IsFeatured != nil {
		p.IsFeatured = *in.IsFeatured
	}
	if in.IsBestSelling != nil {
		p.IsBestSelling = *in.IsBestSelling
	}
	if in.IsNewCollection != nil {
		p.IsNewCollection = *in.IsNewCollection
	}
	if in.IsRelatedItem != nil {
		p.IsRelatedItem = *in.IsRelatedItem
	}
	if in.HasVariants != nil {
		p.HasVariants = *in.HasVariants
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
}

// newVariant builds a row from a create payload with defaults filled in.
func (in VariantInput) newVariant(productID uuid.UUID, sku string) *models.ProductVariant {
	v := &models.ProductVariant{
		ProductID:         productID,
		SKU:               sku,
		LowStockAlert:     5,
		HasCashOnDelivery: true,
		IsActive:          true,
	}
	in.apply(v)
	v.SKU = sku
	return v
}

// apply copies the non-nil patch fields onto v.
func (in VariantInput) apply(v *models.ProductVariant) {
	if in.SKU != nil {
		v.SKU = *in.SKU
	}
	if in.VariantName != nil {
		v.VariantName = in.VariantName
	}
	if in.Color != nil {
		v.Color = blankToNil(in.Color)
	}
	if in.Size != nil {
		v.Size = blankToNil(in.Size)
	}
	if in.Dimensions != nil {
		v.Dimensions = dbtypes.JSONMap(in.Dimensions)
	}
	if in.Attributes != nil {
		v.Attributes = dbtypes.JSONMap(in.Attributes)
	}
	if in.VariantImages != nil {
		v.VariantImages = dbtypes.StringList(*in.VariantImages)
	}
	if in.VariantDescription != nil {
		v.VariantDescription = in.VariantDescription
	}
	if in.BuyingPrice != nil {
		v.BuyingPrice = in.BuyingPrice
	}
	if in.MaximumRetailPrice != nil {
		v.MaximumRetailPrice = in.MaximumRetailPrice
	}
	if in.SellingPrice != nil {
		v.SellingPrice = in.SellingPrice
	}
	if in.Quantity != nil {
		v.Quantity = *in.Quantity
	}
	if in.LowStockAlert != nil {
		v.LowStockAlert = *in.LowStockAlert
	}
	if in.ExpiryDate != nil {
		v.ExpiryDate = in.ExpiryDate
	}
	if in.HasCashOnDelivery != nil {
		v.HasCashOnDelivery = *in.HasCashOnDelivery
	}
	if in.IsRelatedItem != nil {
		v.IsRelatedItem = *in.IsRelatedItem
	}
	if in.IsDefault != nil {
		v.IsDefault = *in.IsDefault
	}
	if in.IsActive != nil {
		v.IsActive = *in.IsActive
	}
}
