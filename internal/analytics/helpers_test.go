package analytics

import (
	"time"

	"github.com/Dan9191/finance-insights/internal/models"
	"github.com/shopspring/decimal"
)

var asOf = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

func expense(date time.Time, category string, amount float64) models.Transaction {
	return models.Transaction{Date: date, Type: models.TransactionExpense, Category: category, Amount: money(amount)}
}

func income(date time.Time, amount float64) models.Transaction {
	return models.Transaction{Date: date, Type: models.TransactionIncome, Category: "salary", Amount: money(amount)}
}

// steadyMonths returns one income and one expense per month for n months ending with the month of end
func steadyMonths(end time.Time, n int, in, out float64) []models.Transaction {
	var txs []models.Transaction
	for i := n - 1; i >= 0; i-- {
		d := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -i, 0)
		txs = append(txs, income(d, in), expense(d.AddDate(0, 0, 1), "living", out))
	}
	return txs
}
