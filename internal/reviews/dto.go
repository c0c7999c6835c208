package reviews

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

type CreateReviewInput struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Rating    int       `json:"rating" validate:"required,min=1,max=5"`
	Comment   *string   `json:"comment,omitempty" validate:"omitempty,max=2000"`
	Image     *string   `json:"image,omitempty"`
}

type UpdateStatusInput struct {
	Status enums.ReviewStatus `json:"status" validate:"required"`
}

type Reviewer struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"fullName"`
}

type ReviewDTO struct {
	ID            uuid.UUID          `json:"id"`
	UserID        uuid.UUID          `json:"userId"`
	ProductID     uuid.UUID          `json:"productId"`
	Rating        int                `json:"rating"`
	Comment       *string            `json:"comment,omitempty"`
	Image         *string            `json:"image,omitempty"`
	Status        enums.ReviewStatus `json:"status"`
	IsHighlighted bool               `json:"isHighlighted"`
	User          *Reviewer          `json:"user,omitempty"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}

func fromModel(r *models.Review) ReviewDTO {
	dto := ReviewDTO{
		ID:            r.ID,
		UserID:        r.UserID,
		ProductID:     r.ProductID,
		Rating:        r.Rating,
		Comment:       r.Comment,
		Image:         r.Image,
		Status:        r.Status,
		IsHighlighted: r.IsHighlighted,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
	if r.User != nil {
		dto.User = &Reviewer{ID: r.User.ID, FullName: r.User.FullName}
	}
	return dto
}

func fromModels(rows []models.Review) []ReviewDTO {
	out := make([]ReviewDTO, 0, len(rows))
	for i := range rows {
		out = append(out, fromModel(&rows[i]))
	}
	return out
}
