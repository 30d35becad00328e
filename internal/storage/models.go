package storage

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type User struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	Currency     string
	Language     string
	CreatedAt    time.Time
}

// Category is either a seeded default visible to everyone (UserID nil) or a
// private category owned by one user.
type Category struct {
	ID        uuid.UUID
	NameEn    string
	NameBn    string
	Type      string
	IsDefault bool
	UserID    *uuid.UUID
	CreatedAt time.Time
}

type Transaction struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	CategoryID uuid.UUID
	Amount     decimal.Decimal
	Type       string
	Date       time.Time
	Notes      *string
	CreatedAt  time.Time
	UpdatedAt  time.Time

	// populated on list reads
	Category *Category
}

type TransactionFilter struct {
	From  *time.Time
	To    *time.Time
	Type  string
	Limit int
}

type TransactionUpdate struct {
	Amount     decimal.Decimal
	Type       string
	CategoryID uuid.UUID
	Date       time.Time
	Notes      *string
}

// CategoryAmount is one slice of the dashboard expense breakdown.
type CategoryAmount struct {
	NameEn string
	NameBn string
	Value  decimal.Decimal
}
