package categories

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// CreateCategoryInput is the payload for a new category.
type CreateCategoryInput struct {
	Name        string     `json:"name" validate:"required,min=1,max=120"`
	Slug        *string    `json:"slug,omitempty" validate:"omitempty,max=160"`
	Description *string    `json:"description,omitempty"`
	IsActive    *bool      `json:"isActive,omitempty"`
	ParentID    *uuid.UUID `json:"parentId,omitempty"`
}

// UpdateCategoryInput is a partial patch. ClearParent moves the category to
// the root; it wins over ParentID.
type UpdateCategoryInput struct {
	Name        *string    `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Slug        *string    `json:"slug,omitempty" validate:"omitempty,max=160"`
	Description *string    `json:"description,omitempty"`
	IsActive    *bool      `json:"isActive,omitempty"`
	ParentID    *uuid.UUID `json:"parentId,omitempty"`
	ClearParent bool       `json:"clearParent,omitempty"`
}

// ListParams drives the admin listing.
type ListParams struct {
	Page            int
	Limit           int
	IncludeInactive bool
}

// CategoryRef is the short form used for parents and children.
type CategoryRef struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Slug     *string   `json:"slug,omitempty"`
	IsActive bool      `json:"isActive"`
}

// CategoryDTO is the API shape of a category.
type CategoryDTO struct {
	ID            uuid.UUID     `json:"id"`
	Name          string        `json:"name"`
	Slug          *string       `json:"slug,omitempty"`
	Description   *string       `json:"description,omitempty"`
	IsActive      bool          `json:"isActive"`
	ParentID      *uuid.UUID    `json:"parentId,omitempty"`
	Parent        *CategoryRef  `json:"parent,omitempty"`
	Children      []CategoryRef `json:"children,omitempty"`
	ChildrenCount *int64        `json:"childrenCount,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

func fromModel(c *models.Category) CategoryDTO {
	return CategoryDTO{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		IsActive:    c.IsActive,
		ParentID:    c.ParentID,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func refFromModel(c *models.Category) *CategoryRef {
	if c == nil {
		return nil
	}
	return &CategoryRef{ID: c.ID, Name: c.Name, Slug: c.Slug, IsActive: c.IsActive}
}

func withCount(dto CategoryDTO, count int64) CategoryDTO {
	dto.ChildrenCount = &count
	return dto
}
