package auth

import (
	"time"

	"github.com/angelmondragon/storefront-backend/internal/users"
)

type RegisterRequest struct {
	FullName string `json:"fullName" validate:"required,min=1,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is returned by every flow that issues a token.
type AuthResponse struct {
	User      *users.UserDTO `json:"user"`
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expiresAt"`
}
