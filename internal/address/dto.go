package address

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

type CreateAddressInput struct {
	FullName   string  `json:"fullName" validate:"required,max=120"`
	Phone      string  `json:"phone" validate:"required,min=7,max=20"`
	Line1      string  `json:"line1" validate:"required,max=200"`
	Line2      *string `json:"line2,omitempty" validate:"omitempty,max=200"`
	City       string  `json:"city" validate:"required,max=100"`
	State      string  `json:"state" validate:"required,max=100"`
	PostalCode string  `json:"postalCode" validate:"required,max=20"`
	Country    string  `json:"country" validate:"required,max=60"`
	IsDefault  bool    `json:"isDefault"`
}

type UpdateAddressInput struct {
	FullName   *string `json:"fullName,omitempty" validate:"omitempty,min=1,max=120"`
	Phone      *string `json:"phone,omitempty" validate:"omitempty,min=7,max=20"`
	Line1      *string `json:"line1,omitempty" validate:"omitempty,min=1,max=200"`
	Line2      *string `json:"line2,omitempty" validate:"omitempty,max=200"`
	City       *string `json:"city,omitempty" validate:"omitempty,min=1,max=100"`
	State      *string `json:"state,omitempty" validate:"omitempty,min=1,max=100"`
	PostalCode *string `json:"postalCode,omitempty" validate:"omitempty,min=1,max=20"`
	Country    *string `json:"country,omitempty" validate:"omitempty,min=1,max=60"`
	IsDefault  *bool   `json:"isDefault,omitempty"`
}

type AddressDTO struct {
	ID         uuid.UUID `json:"id"`
	FullName   string    `json:"fullName"`
	Phone      string    `json:"phone"`
	Line1      string    `json:"line1"`
	Line2      *string   `json:"line2,omitempty"`
	City       string    `json:"city"`
	State      string    `json:"state"`
	PostalCode string    `json:"postalCode"`
	Country    string    `json:"country"`
	IsDefault  bool      `json:"isDefault"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func fromModel(a *models.Address) AddressDTO {
	return AddressDTO{
		ID:         a.ID,
		FullName:   a.FullName,
		Phone:      a.Phone,
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
		IsDefault:  a.IsDefault,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}
