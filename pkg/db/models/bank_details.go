package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BankDetails struct {
	ID                uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID            uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	BankName          string    `gorm:"column:bank_name;not null"`
	AccountHolderName string    `gorm:"column:account_holder_name;not null"`
	IFSC              string    `gorm:"column:ifsc;not null"`
	BranchName        string    `gorm:"column:branch_name;not null"`
	AccountNumber     string    `gorm:"column:account_number;not null"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (BankDetails) TableName() string { return "bank_details" }

func (b *BankDetails) BeforeCreate(*gorm.DB) error {
	assignID(&b.ID)
	return nil
}
