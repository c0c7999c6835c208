package categories

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

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes the category tree.
type Service interface {
	Create(ctx context.Context, input CreateCategoryInput) (*CategoryDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateCategoryInput) (*CategoryDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*CategoryDTO, error)
	GetBySlug(ctx context.Context, slug string) (*CategoryDTO, error)
	GetRoots(ctx context.Context) ([]CategoryDTO, error)
	GetChildren(ctx context.Context, id uuid.UUID) ([]CategoryDTO, error)
	List(ctx context.Context, params ListParams) (types.PageEnvelope[CategoryDTO], error)
}

type service struct {
	repo *Repository
	tx   txRunner
}

// NewService wires the category service.
func NewService(repo *Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("categories repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) Create(ctx context.Context, input CreateCategoryInput) (*CategoryDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	slug := normalizeSlug(input.Slug)

	if input.ParentID != nil {
		if _, err := s.repo.FindByID(ctx, *input.ParentID); err != nil {
			return nil, mapStoreErr(err, "parent category not found", "db: load parent category")
		}
	}
	if slug != nil {
		taken, err := s.repo.SlugTaken(ctx, *slug, nil)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: check slug")
		}
		if taken {
			return nil, slugConflict(*slug)
		}
	}

	category := &models.Category{
		Name:        name,
		Slug:        slug,
		Description: input.Description,
		IsActive:    true,
		ParentID:    input.ParentID,
	}
	if input.IsActive != nil {
		category.IsActive = *input.IsActive
	}

	if err := s.repo.Create(ctx, category); err != nil {
		if db.IsUniqueViolation(err, "") && slug != nil {
			return nil, slugConflict(*slug)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create category")
	}

	dto := fromModel(category)
	if category.ParentID != nil {
		parent, err := s.repo.FindByID(ctx, *category.ParentID)
		if err == nil {
			dto.Parent = refFromModel(parent)
		}
	}
	return &dto, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateCategoryInput) (*CategoryDTO, error) {
	var updated *models.Category
	var parent *models.Category

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		category, err := repo.FindByID(ctx, id)
		if err != nil {
			return mapStoreErr(err, "category not found", "db: load category")
		}

		switch {
		case input.ClearParent:
			category.ParentID = nil
		case input.ParentID != nil:
			newParent := *input.ParentID
			if newParent == id {
				return pkgerrors.New(pkgerrors.CodeValidation, "category cannot be its own parent")
			}
			if _, err := repo.FindByID(ctx, newParent); err != nil {
				return mapStoreErr(err, "parent category not found", "db: load parent category")
			}
			if err := repo.LockTree(ctx); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: lock category tree")
			}
			arena, err := repo.ParentArena(ctx)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load category tree")
			}
			if arena.WouldCycle(id, newParent) {
				return pkgerrors.New(pkgerrors.CodeValidation, "cannot set parent: would create circular reference")
			}
			category.ParentID = &newParent
		}

		if input.Slug != nil {
			slug := normalizeSlug(input.Slug)
			if slug != nil && (category.Slug == nil || *category.Slug != *slug) {
				taken, err := repo.SlugTaken(ctx, *slug, &id)
				if err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: check slug")
				}
				if taken {
					return slugConflict(*slug)
				}
			}
			category.Slug = slug
		}
		if input.Name != nil {
			name := strings.TrimSpace(*input.Name)
			if name == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
			}
			category.Name = name
		}
		if input.Description != nil {
			category.Description = input.Description
		}
		if input.IsActive != nil {
			category.IsActive = *input.IsActive
		}

		if err := repo.Save(ctx, category); err != nil {
			if db.IsUniqueViolation(err, "") && category.Slug != nil {
				return slugConflict(*category.Slug)
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update category")
		}

		if category.ParentID != nil {
			if p, err := repo.FindByID(ctx, *category.ParentID); err == nil {
				parent = p
			}
		}
		updated = category
		return nil
	})
	if err != nil {
		return nil, err
	}

	dto := fromModel(updated)
	dto.Parent = refFromModel(parent)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindByID(ctx, id); err != nil {
			return mapStoreErr(err, "category not found", "db: load category")
		}

		children, err := repo.CountChildren(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: count children")
		}
		if children > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "cannot delete category with children; delete or move children first").
				WithDetails(map[string]any{"children": children})
		}

		products, err := repo.CountProducts(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: count products")
		}
		if products > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "cannot delete category that still has products").
				WithDetails(map[string]any{"products": products})
		}

		if err := repo.Delete(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete category")
		}
		return nil
	})
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*CategoryDTO, error) {
	category, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err, "category not found", "db: load category")
	}
	return s.detail(ctx, category)
}

func (s *service) GetBySlug(ctx context.Context, slug string) (*CategoryDTO, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug is required")
	}
	category, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, mapStoreErr(err, "category not found", "db: load category")
	}
	return s.detail(ctx, category)
}

func (s *service) detail(ctx context.Context, category *models.Category) (*CategoryDTO, error) {
	dto := fromModel(category)
	if category.ParentID != nil {
		parent, err := s.repo.FindByID(ctx, *category.ParentID)
		switch {
		case err == nil:
			dto.Parent = refFromModel(parent)
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load parent category")
		}
	}

	children, err := s.repo.ListChildren(ctx, category.ID, false)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list children")
	}
	dto.Children = make([]CategoryRef, 0, len(children))
	for i := range children {
		dto.Children = append(dto.Children, *refFromModel(&children[i]))
	}
	return &dto, nil
}

func (s *service) GetRoots(ctx context.Context) ([]CategoryDTO, error) {
	roots, err := s.repo.ListRoots(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list root categories")
	}
	return s.withChildCounts(ctx, roots)
}

func (s *service) GetChildren(ctx context.Context, id uuid.UUID) ([]CategoryDTO, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, mapStoreErr(err, "category not found", "db: load category")
	}
	children, err := s.repo.ListChildren(ctx, id, true)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list children")
	}
	return s.withChildCounts(ctx, children)
}

func (s *service) List(ctx context.Context, params ListParams) (types.PageEnvelope[CategoryDTO], error) {
	page := pagination.Params{Page: params.Page, Limit: params.Limit}.Normalize()
	rows, total, err := s.repo.List(ctx, page.Offset(), page.Limit, params.IncludeInactive)
	if err != nil {
		return types.PageEnvelope[CategoryDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list categories")
	}

	items, err := s.withChildCounts(ctx, rows)
	if err != nil {
		return types.PageEnvelope[CategoryDTO]{}, err
	}

	parentIDs := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		if row.ParentID != nil {
			parentIDs = append(parentIDs, *row.ParentID)
		}
	}
	if len(parentIDs) > 0 {
		parents := make(map[uuid.UUID]*CategoryRef, len(parentIDs))
		for _, pid := range parentIDs {
			if _, ok := parents[pid]; ok {
				continue
			}
			parent, err := s.repo.FindByID(ctx, pid)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					continue
				}
				return types.PageEnvelope[CategoryDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load parent category")
			}
			parents[pid] = refFromModel(parent)
		}
		for i := range items {
			if items[i].ParentID != nil {
				items[i].Parent = parents[*items[i].ParentID]
			}
		}
	}

	return pagination.NewPage(items, page, total), nil
}

func (s *service) withChildCounts(ctx context.Context, rows []models.Category) ([]CategoryDTO, error) {
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	counts, err := s.repo.ChildCounts(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: count children")
	}
	out := make([]CategoryDTO, 0, len(rows))
	for i := range rows {
		out = append(out, withCount(fromModel(&rows[i]), counts[rows[i].ID]))
	}
	return out, nil
}

func normalizeSlug(slug *string) *string {
	if slug == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*slug)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func slugConflict(slug string) error {
	return pkgerrors.New(pkgerrors.CodeConflict, "slug already exists").
		WithDetails(map[string]any{"slug": slug})
}

func mapStoreErr(err error, notFound, step string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFound)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, step)
}
