package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType represents the type of transaction
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "INCOME"
	TransactionTypeExpense TransactionType = "EXPENSE"
)

// Well-known categories.
const (
	// CategorySavings marks the ledger entry written for a goal contribution.
	CategorySavings = "Tabungan"
	// CategoryOther is the fallback when no confident prediction exists.
	CategoryOther = "Lainnya"
)

// ParseTransactionType normalizes s ("income", "Expense", ...) to a TransactionType.
func ParseTransactionType(s string) (TransactionType, bool) {
	switch t := TransactionType(strings.ToUpper(strings.TrimSpace(s))); t {
	case TransactionTypeIncome, TransactionTypeExpense:
		return t, true
	}
	return "", false
}

// Transaction represents a financial transaction in the system
type Transaction struct {
	Base
	UserID          uint            `gorm:"not null;index" json:"user_id"`
	Title           string          `gorm:"size:255;not null" json:"title"`
	Amount          decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	Type            TransactionType `gorm:"size:10;not null" json:"type"`
	Category        *string         `gorm:"size:100" json:"category"`
	TransactionDate time.Time       `gorm:"not null;index" json:"transaction_date"`
	AnomalyStatus   *string         `gorm:"size:50" json:"anomaly_status"`
}
