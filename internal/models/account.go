package models

import "github.com/shopspring/decimal"

// Account represents a cash account whose balance counts towards savings
type Account struct {
	ID       int64           `json:"id"`
	UserID   int64           `json:"user_id"`
	Name     string          `json:"name"`
	Balance  decimal.Decimal `json:"balance"`
	Currency string          `json:"currency"`
}
