package models

import "github.com/shopspring/decimal"

// Investment represents a held position
type Investment struct {
	ID            int64           `json:"id"`
	UserID        int64           `json:"user_id"`
	Symbol        string          `json:"symbol"`
	Type          string          `json:"type"`
	Quantity      decimal.Decimal `json:"quantity"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
	Dividends     decimal.Decimal `json:"dividends"`
}

// MarketValue returns quantity times current price
func (i Investment) MarketValue() decimal.Decimal {
	return i.Quantity.Mul(i.CurrentPrice)
}
