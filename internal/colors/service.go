package colors

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// Service is the admin palette of named color schemes.
type Service interface {
	Create(ctx context.Context, input CreateColorInput) (*ColorDTO, error)
	List(ctx context.Context, page pagination.Params) (types.PageEnvelope[ColorDTO], error)
	Update(ctx context.Context, id uuid.UUID, input UpdateColorInput) (*ColorDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("colors repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, input CreateColorInput) (*ColorDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if err := s.ensureNameFree(ctx, name, uuid.Nil); err != nil {
		return nil, err
	}
	color := &models.ColorScheme{Name: name, Description: trimmed(input.Description)}
	if err := s.repo.Create(ctx, color); err != nil {
		return nil, mapWriteErr(err, name, "create color")
	}
	dto := fromModel(color)
	return &dto, nil
}

func (s *service) List(ctx context.Context, page pagination.Params) (types.PageEnvelope[ColorDTO], error) {
	page = page.Normalize()
	rows, total, err := s.repo.List(ctx, page.Offset(), page.Limit)
	if err != nil {
		return types.PageEnvelope[ColorDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list colors")
	}
	items := make([]ColorDTO, 0, len(rows))
	for i := range rows {
		items = append(items, fromModel(&rows[i]))
	}
	return pagination.NewPage(items, page, total), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateColorInput) (*ColorDTO, error) {
	color, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load color")
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		if err := s.ensureNameFree(ctx, name, color.ID); err != nil {
			return nil, err
		}
		color.Name = name
	}
	if input.Description != nil {
		color.Description = trimmed(input.Description)
	}
	if err := s.repo.Save(ctx, color); err != nil {
		return nil, mapWriteErr(err, color.Name, "update color")
	}
	dto := fromModel(color)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	affected, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete color")
	}
	if affected == 0 {
		return notFound()
	}
	return nil
}

func (s *service) ensureNameFree(ctx context.Context, name string, excludeID uuid.UUID) error {
	taken, err := s.repo.NameTaken(ctx, name, excludeID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: check color name")
	}
	if taken {
		return nameConflict(name)
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
	return pkgerrors.New(pkgerrors.CodeNotFound, "color scheme not found")
}

func nameConflict(name string) error {
	return pkgerrors.New(pkgerrors.CodeConflict, "color scheme name already exists").
		WithDetails(map[string]any{"name": name})
}

func mapWriteErr(err error, name, step string) error {
	if db.IsUniqueViolation(err, "") {
		return nameConflict(name)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: "+step)
}
