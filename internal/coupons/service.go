package coupons

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

var hundred = decimal.NewFromInt(100)

// Service is the admin surface for discount coupons.
type Service interface {
	Create(ctx context.Context, input CreateCouponInput) (*CouponDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*CouponDTO, error)
	List(ctx context.Context, page pagination.Params) (types.PageEnvelope[CouponDTO], error)
	Update(ctx context.Context, id uuid.UUID, input UpdateCouponInput) (*CouponDTO, error)
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("coupons repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, input CreateCouponInput) (*CouponDTO, error) {
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "code is required")
	}
	if err := validateTerms(input.Type, input.Value, input.MaxDiscount); err != nil {
		return nil, err
	}

	taken, err := s.repo.CodeTaken(ctx, code)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: check coupon code")
	}
	if taken {
		return nil, codeConflict(code)
	}

	coupon := &models.Coupon{
		Code:        code,
		Type:        input.Type,
		Value:       input.Value,
		MaxDiscount: input.MaxDiscount,
		IsActive:    true,
	}
	if input.IsActive != nil {
		coupon.IsActive = *input.IsActive
	}
	if err := s.repo.Create(ctx, coupon); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, codeConflict(code)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create coupon")
	}
	dto := fromModel(coupon)
	return &dto, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*CouponDTO, error) {
	coupon, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := fromModel(coupon)
	return &dto, nil
}

func (s *service) List(ctx context.Context, page pagination.Params) (types.PageEnvelope[CouponDTO], error) {
	page = page.Normalize()
	rows, total, err := s.repo.List(ctx, page.Offset(), page.Limit)
	if err != nil {
		return types.PageEnvelope[CouponDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list coupons")
	}
	items := make([]CouponDTO, 0, len(rows))
	for i := range rows {
		items = append(items, fromModel(&rows[i]))
	}
	return pagination.NewPage(items, page, total), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateCouponInput) (*CouponDTO, error) {
	coupon, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Type != nil {
		coupon.Type = *input.Type
	}
	if input.Value != nil {
		coupon.Value = *input.Value
	}
	if input.ClearMaxDiscount {
		coupon.MaxDiscount = nil
	} else if input.MaxDiscount != nil {
		coupon.MaxDiscount = input.MaxDiscount
	}
	if input.IsActive != nil {
		coupon.IsActive = *input.IsActive
	}
	if err := validateTerms(coupon.Type, coupon.Value, coupon.MaxDiscount); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, coupon); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update coupon")
	}
	dto := fromModel(coupon)
	return &dto, nil
}

func (s *service) find(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	coupon, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load coupon")
	}
	return coupon, nil
}

func validateTerms(kind enums.CouponType, value decimal.Decimal, maxDiscount *decimal.Decimal) error {
	if !kind.IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid coupon type %q", kind)
	}
	if !value.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "value must be greater than zero")
	}
	if kind == enums.CouponTypePercentage && value.GreaterThan(hundred) {
		return pkgerrors.New(pkgerrors.CodeValidation, "percentage coupons cannot exceed 100")
	}
	if maxDiscount != nil && !maxDiscount.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "maxDiscount must be greater than zero")
	}
	return nil
}

func codeConflict(code string) error {
	return pkgerrors.Newf(pkgerrors.CodeConflict, "coupon code %s already exists", code).
		WithDetails(map[string]any{"code": code})
}
