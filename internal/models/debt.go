package models

import "github.com/shopspring/decimal"

// Debt represents an outstanding loan or credit line
type Debt struct {
	ID             int64           `json:"id"`
	UserID         int64           `json:"user_id"`
	Name           string          `json:"name"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
	InterestRate   float64         `json:"interest_rate"` // annual, percent
	MonthlyPayment decimal.Decimal `json:"monthly_payment"`
}
