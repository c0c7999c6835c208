package bankdetails

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

type BankDetailsInput struct {
	BankName          string `json:"bankName" validate:"required,max=120"`
	AccountHolderName string `json:"accountHolderName" validate:"required,max=120"`
	IFSC              string `json:"ifsc" validate:"required,alphanum,len=11"`
	BranchName        string `json:"branchName" validate:"required,max=120"`
	AccountNumber     string `json:"accountNumber" validate:"required,numeric,min=6,max=20"`
}

type BankDetailsDTO struct {
	ID                uuid.UUID `json:"id"`
	UserID            uuid.UUID `json:"userId"`
	BankName          string    `json:"bankName"`
	AccountHolderName string    `json:"accountHolderName"`
	IFSC              string    `json:"ifsc"`
	BranchName        string    `json:"branchName"`
	AccountNumber     string    `json:"accountNumber"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

func fromModel(b *models.BankDetails) BankDetailsDTO {
	return BankDetailsDTO{
		ID:                b.ID,
		UserID:            b.UserID,
		BankName:          b.BankName,
		AccountHolderName: b.AccountHolderName,
		IFSC:              b.IFSC,
		BranchName:        b.BranchName,
		AccountNumber:     b.AccountNumber,
		CreatedAt:         b.CreatedAt,
		UpdatedAt:         b.UpdatedAt,
	}
}
