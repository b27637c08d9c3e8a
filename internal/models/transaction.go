package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType tells income apart from expense; amounts are never negative
type TransactionType string

const (
	TransactionIncome  TransactionType = "income"
	TransactionExpense TransactionType = "expense"
)

// Transaction represents a normalized financial transaction
type Transaction struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"user_id"`
	Date        time.Time       `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Type        TransactionType `json:"type"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	IsRecurring bool            `json:"is_recurring"`
}

// IsExpense reports whether the transaction is an expense
func (t Transaction) IsExpense() bool {
	return t.Type == TransactionExpense
}

// IsIncome reports whether the transaction is an income
func (t Transaction) IsIncome() bool {
	return t.Type == TransactionIncome
}

// MonthKey returns the YYYY-MM bucket of the transaction, or "" when the date is missing
func (t Transaction) MonthKey() string {
	if t.Date.IsZero() {
		return ""
	}
	return MonthKey(t.Date)
}
