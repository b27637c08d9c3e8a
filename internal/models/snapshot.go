package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const monthLayout = "2006-01"

// MonthKey formats t as a YYYY-MM bucket key
func MonthKey(t time.Time) string {
	return t.Format(monthLayout)
}

// ParseMonthKey parses a YYYY-MM bucket key into the first day of that month (UTC)
func ParseMonthKey(key string) (time.Time, error) {
	return time.Parse(monthLayout, key)
}

// AddMonths shifts a YYYY-MM key by n months. Invalid keys are returned unchanged.
func AddMonths(key string, n int) string {
	t, err := ParseMonthKey(key)
	if err != nil {
		return key
	}
	return MonthKey(t.AddDate(0, n, 0))
}

// FinancialSnapshot is the read-only view of one user's records that every analyzer consumes.
// AsOf fixes the current period: the calendar month containing it.
type FinancialSnapshot struct {
	UserID       int64         `json:"user_id"`
	AsOf         time.Time     `json:"as_of"`
	Transactions []Transaction `json:"transactions"`
	Budgets      []Budget      `json:"budgets"`
	SavingsGoals []SavingsGoal `json:"savings_goals"`
	Debts        []Debt        `json:"debts"`
	Investments  []Investment  `json:"investments"`
	Accounts     []Account     `json:"accounts"`
}

// CurrentMonth returns the month key of AsOf
func (s *FinancialSnapshot) CurrentMonth() string {
	return MonthKey(s.AsOf)
}

// PreviousMonth returns the month key before AsOf
func (s *FinancialSnapshot) PreviousMonth() string {
	return AddMonths(s.CurrentMonth(), -1)
}

// Expenses splits expense transactions into history (months before the current one)
// and the current period. Transactions without a date belong to neither.
func (s *FinancialSnapshot) Expenses() (history, current []Transaction) {
	cur := s.CurrentMonth()
	for _, t := range s.Transactions {
		if !t.IsExpense() {
			continue
		}
		key := t.MonthKey()
		switch {
		case key == "":
		case key == cur:
			current = append(current, t)
		case key < cur:
			history = append(history, t)
		}
	}
	return history, current
}

// MonthTotals sums income and expenses for one month
func (s *FinancialSnapshot) MonthTotals(month string) (income, expenses decimal.Decimal) {
	for _, t := range s.Transactions {
		if t.MonthKey() != month {
			continue
		}
		if t.IsIncome() {
			income = income.Add(t.Amount)
		} else if t.IsExpense() {
			expenses = expenses.Add(t.Amount)
		}
	}
	return income, expenses
}

// CategorySpend sums expenses per category for one month
func (s *FinancialSnapshot) CategorySpend(month string) map[string]decimal.Decimal {
	spend := make(map[string]decimal.Decimal)
	for _, t := range s.Transactions {
		if !t.IsExpense() || t.MonthKey() != month {
			continue
		}
		spend[t.Category] = spend[t.Category].Add(t.Amount)
	}
	return spend
}

// YearlyIncome sums income over the twelve months ending with the current one
func (s *FinancialSnapshot) YearlyIncome() decimal.Decimal {
	cur := s.CurrentMonth()
	from := AddMonths(cur, -11)
	var total decimal.Decimal
	for _, t := range s.Transactions {
		key := t.MonthKey()
		if !t.IsIncome() || key == "" || key < from || key > cur {
			continue
		}
		total = total.Add(t.Amount)
	}
	return total
}

// TotalSavings sums account balances and money already put aside in savings goals
func (s *FinancialSnapshot) TotalSavings() decimal.Decimal {
	var total decimal.Decimal
	for _, a := range s.Accounts {
		total = total.Add(a.Balance)
	}
	for _, g := range s.SavingsGoals {
		total = total.Add(g.CurrentAmount)
	}
	return total
}

// GoalSavings sums current amounts across savings goals
func (s *FinancialSnapshot) GoalSavings() decimal.Decimal {
	var total decimal.Decimal
	for _, g := range s.SavingsGoals {
		total = total.Add(g.CurrentAmount)
	}
	return total
}

// PortfolioValue sums the market value of all investments
func (s *FinancialSnapshot) PortfolioValue() decimal.Decimal {
	var total decimal.Decimal
	for _, i := range s.Investments {
		total = total.Add(i.MarketValue())
	}
	return total
}

// TotalDebt sums outstanding debt balances
func (s *FinancialSnapshot) TotalDebt() decimal.Decimal {
	var total decimal.Decimal
	for _, d := range s.Debts {
		total = total.Add(d.CurrentBalance)
	}
	return total
}
