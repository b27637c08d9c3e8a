package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SavingsGoal represents a target amount the user is saving towards
type SavingsGoal struct {
	ID            int64           `json:"id"`
	UserID        int64           `json:"user_id"`
	Name          string          `json:"name"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
	TargetAmount  decimal.Decimal `json:"target_amount"`
	TargetDate    time.Time       `json:"target_date"`
}

// Progress returns current/target, or 0 when the target is not positive
func (g SavingsGoal) Progress() float64 {
	if !g.TargetAmount.IsPositive() {
		return 0
	}
	return g.CurrentAmount.Div(g.TargetAmount).InexactFloat64()
}

// Achieved reports whether the goal has reached its target
func (g SavingsGoal) Achieved() bool {
	return g.TargetAmount.IsPositive() && g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount)
}
