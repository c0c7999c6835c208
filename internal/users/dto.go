package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// UserDTO is the public projection of a user row. The password hash never leaves the package.
type UserDTO struct {
	ID             uuid.UUID  `json:"id"`
	FullName       string     `json:"fullName"`
	Email          string     `json:"email"`
	IsAdmin        bool       `json:"isAdmin"`
	IsUserVerified bool       `json:"isUserVerified"`
	IsActive       bool       `json:"isActive"`
	LastLoginAt    *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// BankDetailsSummary is embedded in the admin user view.
type BankDetailsSummary struct {
	ID                uuid.UUID `json:"id"`
	BankName          string    `json:"bankName"`
	AccountHolderName string    `json:"accountHolderName"`
	IFSC              string    `json:"ifsc"`
	BranchName        string    `json:"branchName"`
	AccountNumber     string    `json:"accountNumber"`
}

// UserDetailDTO is what admins see for a single user.
type UserDetailDTO struct {
	UserDTO
	BankDetails *BankDetailsSummary `json:"bankDetails"`
}

type UpdateProfileInput struct {
	FullName *string `json:"fullName,omitempty" validate:"omitempty,min=1,max=120"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

type SetStatusInput struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

// Principal is the slice of the user row the auth middleware needs on every request.
type Principal struct {
	ID       uuid.UUID
	Email    string
	IsAdmin  bool
	IsActive bool
}

// FromModel maps a user row to its DTO.
func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:             u.ID,
		FullName:       u.FullName,
		Email:          u.Email,
		IsAdmin:        u.IsAdmin,
		IsUserVerified: u.IsUserVerified,
		IsActive:       u.IsActive,
		LastLoginAt:    u.LastLoginAt,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

func detailFromModel(u *models.User) *UserDetailDTO {
	dto := &UserDetailDTO{UserDTO: *FromModel(u)}
	if b := u.BankDetails; b != nil {
		dto.BankDetails = &BankDetailsSummary{
			ID:                b.ID,
			BankName:          b.BankName,
			AccountHolderName: b.AccountHolderName,
			IFSC:              b.IFSC,
			BranchName:        b.BranchName,
			AccountNumber:     b.AccountNumber,
		}
	}
	return dto
}
