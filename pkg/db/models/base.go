package models

import "github.com/google/uuid"

// Column defaults live in the SQL migrations only. A gorm default tag would
// replace explicit false/zero values on insert.

// assignID gives new rows a client-side UUID so inserts behave the same on
// Postgres and SQLite.
func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// All lists every persisted model, parents before children.
func All() []any {
	return []any{
		&User{},
		&BankDetails{},
		&Address{},
		&Category{},
		&Product{},
		&ProductVariant{},
		&CartItem{},
		&Coupon{},
		&Order{},
		&OrderItem{},
		&OrderHistory{},
		&Review{},
		&ColorScheme{},
	}
}
