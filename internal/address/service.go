package address

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
)

// Service manages a user's shipping addresses. At most one is the default.
type Service interface {
	Create(ctx context.Context, actor auth.Actor, input CreateAddressInput) (*AddressDTO, error)
	List(ctx context.Context, actor auth.Actor) ([]AddressDTO, error)
	Get(ctx context.Context, actor auth.Actor, id uuid.UUID) (*AddressDTO, error)
	Update(ctx context.Context, actor auth.Actor, id uuid.UUID, input UpdateAddressInput) (*AddressDTO, error)
	Delete(ctx context.Context, actor auth.Actor, id uuid.UUID) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo *Repository
	tx   txRunner
}

func NewService(repo *Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("address repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) Create(ctx context.Context, actor auth.Actor, input CreateAddressInput) (*AddressDTO, error) {
	address := &models.Address{
		UserID:     actor.UserID,
		FullName:   strings.TrimSpace(input.FullName),
		Phone:      strings.TrimSpace(input.Phone),
		Line1:      strings.TrimSpace(input.Line1),
		Line2:      trimmed(input.Line2),
		City:       strings.TrimSpace(input.City),
		State:      strings.TrimSpace(input.State),
		PostalCode: strings.TrimSpace(input.PostalCode),
		Country:    strings.TrimSpace(input.Country),
		IsDefault:  input.IsDefault,
	}
	if err := validate(address); err != nil {
		return nil, err
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.CountByUser(ctx, actor.UserID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: count addresses")
		}
		// the first address is always the default
		if existing == 0 {
			address.IsDefault = true
		}
		if err := repo.Create(ctx, address); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create address")
		}
		if address.IsDefault {
			if err := repo.ClearDefault(ctx, actor.UserID, address.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: clear default address")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := fromModel(address)
	return &dto, nil
}

func (s *service) List(ctx context.Context, actor auth.Actor) ([]AddressDTO, error) {
	rows, err := s.repo.ListByUser(ctx, actor.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list addresses")
	}
	out := make([]AddressDTO, 0, len(rows))
	for i := range rows {
		out = append(out, fromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, actor auth.Actor, id uuid.UUID) (*AddressDTO, error) {
	address, err := s.repo.FindOwned(ctx, actor.UserID, id)
	if err != nil {
		return nil, mapStoreErr(err, "load address")
	}
	dto := fromModel(address)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, actor auth.Actor, id uuid.UUID, input UpdateAddressInput) (*AddressDTO, error) {
	var address *models.Address
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		address, err = repo.FindOwned(ctx, actor.UserID, id)
		if err != nil {
			return mapStoreErr(err, "load address")
		}
		patch(address, input)
		if err := validate(address); err != nil {
			return err
		}
		if err := repo.Save(ctx, address); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update address")
		}
		if input.IsDefault != nil && *input.IsDefault {
			if err := repo.ClearDefault(ctx, actor.UserID, address.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: clear default address")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := fromModel(address)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, actor auth.Actor, id uuid.UUID) error {
	affected, err := s.repo.DeleteOwned(ctx, actor.UserID, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "address is used by an order")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete address")
	}
	if affected == 0 {
		return notFound()
	}
	return nil
}

func patch(a *models.Address, in UpdateAddressInput) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&a.FullName, in.FullName)
	set(&a.Phone, in.Phone)
	set(&a.Line1, in.Line1)
	set(&a.City, in.City)
	set(&a.State, in.State)
	set(&a.PostalCode, in.PostalCode)
	set(&a.Country, in.Country)
	if in.Line2 != nil {
		a.Line2 = trimmed(in.Line2)
	}
	if in.IsDefault != nil {
		a.IsDefault = *in.IsDefault
	}
}

func validate(a *models.Address) error {
	if a.FullName == "" || a.Phone == "" || a.Line1 == "" || a.City == "" ||
		a.State == "" || a.PostalCode == "" || a.Country == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "fullName, phone, line1, city, state, postalCode and country are required")
	}
	return nil
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}

func notFound() error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
}

func mapStoreErr(err error, step string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound()
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: "+step)
}
