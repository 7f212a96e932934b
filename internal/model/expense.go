package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Expense categories
const (
	ExpenseCategoryRent      = "rent"
	ExpenseCategoryUtilities = "utilities"
	ExpenseCategorySalaries  = "salaries"
	ExpenseCategoryTransport = "transport"
	ExpenseCategorySupplies  = "supplies"
	ExpenseCategoryOther     = "other"
)

var expenseCategories = map[string]bool{
	ExpenseCategoryRent:      true,
	ExpenseCategoryUtilities: true,
	ExpenseCategorySalaries:  true,
	ExpenseCategoryTransport: true,
	ExpenseCategorySupplies:  true,
	ExpenseCategoryOther:     true,
}

// ValidExpenseCategory reports whether c is a known expense category.
func ValidExpenseCategory(c string) bool {
	return expenseCategories[c]
}

// Expense represents an operating cost entry scoped to a shop. Expenses are
// subtracted from gross profit in the profit report but never touch stock.
type Expense struct {
	ID              uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ShopID          uuid.UUID       `gorm:"type:uuid;not null;index" json:"shop_id"`
	Shop            Shop            `gorm:"foreignKey:ShopID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedByUserID *uuid.UUID      `gorm:"type:uuid;index" json:"created_by_user_id"`
	Category        string          `gorm:"type:varchar(30);not null;default:'other'" json:"category"`
	Amount          decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount"`
	Note            string          `gorm:"type:varchar(255)" json:"note"`
	IncurredAt      time.Time       `gorm:"index;not null" json:"incurred_at"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}
