package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the canonical identity row. Admins are users with IsAdmin set.
type User struct {
	ID             uuid.UUID    `gorm:"column:id;type:uuid;primaryKey"`
	FullName       string       `gorm:"column:full_name;not null"`
	Email          string       `gorm:"column:email;not null;uniqueIndex"`
	PasswordHash   string       `gorm:"column:password_hash;not null"`
	IsAdmin        bool         `gorm:"column:is_admin;not null"`
	IsUserVerified bool         `gorm:"column:is_user_verified;not null"`
	IsActive       bool         `gorm:"column:is_active;not null"`
	LastLoginAt    *time.Time   `gorm:"column:last_login_at"`
	BankDetails    *BankDetails `gorm:"foreignKey:UserID"`
	CreatedAt      time.Time    `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time    `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	assignID(&u.ID)
	return nil
}
