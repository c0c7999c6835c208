package bankdetails

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// Service manages the single payout account each user may register.
type Service interface {
	Add(ctx context.Context, actor auth.Actor, input BankDetailsInput) (*BankDetailsDTO, error)
	Update(ctx context.Context, actor auth.Actor, input BankDetailsInput) (*BankDetailsDTO, error)
	Get(ctx context.Context, actor auth.Actor) (*BankDetailsDTO, error)
	GetForUser(ctx context.Context, userID uuid.UUID) (*BankDetailsDTO, error)
	List(ctx context.Context, page pagination.Params) (types.PageEnvelope[BankDetailsDTO], error)
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("bank details repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Add(ctx context.Context, actor auth.Actor, input BankDetailsInput) (*BankDetailsDTO, error) {
	input = normalize(input)
	if err := validate(input); err != nil {
		return nil, err
	}
	if _, err := s.repo.FindByUser(ctx, actor.UserID); err == nil {
		return nil, alreadyExists()
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load bank details")
	}

	details := &models.BankDetails{UserID: actor.UserID}
	apply(details, input)
	if err := s.repo.Create(ctx, details); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, alreadyExists()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create bank details")
	}
	dto := fromModel(details)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, actor auth.Actor, input BankDetailsInput) (*BankDetailsDTO, error) {
	input = normalize(input)
	if err := validate(input); err != nil {
		return nil, err
	}
	details, err := s.repo.FindByUser(ctx, actor.UserID)
	if err != nil {
		return nil, mapStoreErr(err, "load bank details")
	}
	apply(details, input)
	if err := s.repo.Save(ctx, details); err != nil {
		return nil, mapStoreErr(err, "update bank details")
	}
	dto := fromModel(details)
	return &dto, nil
}

func (s *service) Get(ctx context.Context, actor auth.Actor) (*BankDetailsDTO, error) {
	return s.GetForUser(ctx, actor.UserID)
}

func (s *service) GetForUser(ctx context.Context, userID uuid.UUID) (*BankDetailsDTO, error) {
	details, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, mapStoreErr(err, "load bank details")
	}
	dto := fromModel(details)
	return &dto, nil
}

func (s *service) List(ctx context.Context, page pagination.Params) (types.PageEnvelope[BankDetailsDTO], error) {
	page = page.Normalize()
	rows, total, err := s.repo.List(ctx, page.Offset(), page.Limit)
	if err != nil {
		return types.PageEnvelope[BankDetailsDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list bank details")
	}
	items := make([]BankDetailsDTO, 0, len(rows))
	for i := range rows {
		items = append(items, fromModel(&rows[i]))
	}
	return pagination.NewPage(items, page, total), nil
}

func normalize(in BankDetailsInput) BankDetailsInput {
	in.BankName = strings.TrimSpace(in.BankName)
	in.AccountHolderName = strings.TrimSpace(in.AccountHolderName)
	in.IFSC = strings.ToUpper(strings.TrimSpace(in.IFSC))
	in.BranchName = strings.TrimSpace(in.BranchName)
	in.AccountNumber = strings.TrimSpace(in.AccountNumber)
	return in
}

func validate(in BankDetailsInput) error {
	fields := []struct{ name, value string }{
		{"bankName", in.BankName},
		{"accountHolderName", in.AccountHolderName},
		{"ifsc", in.IFSC},
		{"branchName", in.BranchName},
		{"accountNumber", in.AccountNumber},
	}
	var missing []string
	for _, f := range fields {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "all bank detail fields are required").
			WithDetails(map[string]any{"missing": missing})
	}
	return nil
}

func apply(details *models.BankDetails, in BankDetailsInput) {
	details.BankName = in.BankName
	details.AccountHolderName = in.AccountHolderName
	details.IFSC = in.IFSC
	details.BranchName = in.BranchName
	details.AccountNumber = in.AccountNumber
}

func alreadyExists() error {
	return pkgerrors.New(pkgerrors.CodeConflict, "bank details already exist for this user")
}

func mapStoreErr(err error, step string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "bank details not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: "+step)
}
