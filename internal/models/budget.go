package models

import "github.com/shopspring/decimal"

// Budget represents a monthly spending limit for a category
type Budget struct {
	ID             int64           `json:"id"`
	UserID         int64           `json:"user_id"`
	Category       string          `json:"category"`
	Month          string          `json:"month"` // Format: YYYY-MM
	MonthlyLimit   decimal.Decimal `json:"monthly_limit"`
	AlertThreshold float64         `json:"alert_threshold"`
}
