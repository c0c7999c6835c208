package colors

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

type CreateColorInput struct {
	Name        string  `json:"name" validate:"required,max=60"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
}

type UpdateColorInput struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=60"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
}

type ColorDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func fromModel(c *models.ColorScheme) ColorDTO {
	return ColorDTO{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}
