package analytics

import (
	"fmt"
	"sort"

	"github.com/Dan9191/finance-insights/internal/models"
)

const (
	forecastWindow      = 12
	forecastTrendWindow = 3
	surplusIncomeFactor = 3.0
)

// monthBucket holds one month of aggregated history
type monthBucket struct {
	month    string
	income   float64
	expenses float64
}

// bucketByMonth sums income and expenses per month and keeps the trailing
// forecastWindow months in chronological order. Undated transactions are skipped.
func bucketByMonth(history []models.Transaction) []monthBucket {
	byMonth := make(map[string]*monthBucket)
	for _, t := range history {
		key := t.MonthKey()
		if key == "" {
			continue
		}
		b, ok := byMonth[key]
		if !ok {
			b = &monthBucket{month: key}
			byMonth[key] = b
		}
		switch t.Type {
		case models.TransactionIncome:
			b.income += toFloat(t.Amount)
		case models.TransactionExpense:
			b.expenses += toFloat(t.Amount)
		}
	}

	buckets := make([]monthBucket, 0, len(byMonth))
	for _, b := range byMonth {
		buckets = append(buckets, *b)
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].month < buckets[j].month })
	if len(buckets) > forecastWindow {
		buckets = buckets[len(buckets)-forecastWindow:]
	}
	return buckets
}

// growthRate compares the last trendWindow values with the first trendWindow values
func growthRate(values []float64) float64 {
	n := forecastTrendWindow
	if len(values) < n {
		n = len(values)
	}
	older := average(values[:n])
	recent := average(values[len(values)-n:])
	if older <= 0 {
		return 0
	}
	return (recent - older) / older
}

// ForecastBalance projects income, expenses and balance for monthsAhead months
// following the last month of history. Each month applies the income and
// expense growth rates linearly (rate × i/12) to the same historical averages.
// An empty history yields no predictions and no alert.
func ForecastBalance(history []models.Transaction, monthsAhead int) models.ForecastResult {
	result := models.ForecastResult{Predictions: []models.MonthlyProjection{}}

	buckets := bucketByMonth(history)
	if len(buckets) == 0 {
		return result
	}

	incomes := make([]float64, len(buckets))
	expenses := make([]float64, len(buckets))
	for i, b := range buckets {
		incomes[i] = b.income
		expenses[i] = b.expenses
	}
	avgIncome := average(incomes)
	avgExpenses := average(expenses)
	incomeGrowth := growthRate(incomes)
	expenseGrowth := growthRate(expenses)

	result.AvgIncome = round(avgIncome, 2)
	result.AvgExpenses = round(avgExpenses, 2)

	lastMonth := buckets[len(buckets)-1].month
	var cumulative float64
	var shortfalls []models.MonthlyProjection
	for i := 1; i <= monthsAhead; i++ {
		elapsed := float64(i) / 12
		projectedIncome := round(avgIncome*(1+incomeGrowth*elapsed), 2)
		projectedExpenses := round(avgExpenses*(1+expenseGrowth*elapsed), 2)
		balance := round(projectedIncome-projectedExpenses, 2)
		cumulative += balance

		p := models.MonthlyProjection{
			Month:             models.AddMonths(lastMonth, i),
			ProjectedIncome:   projectedIncome,
			ProjectedExpenses: projectedExpenses,
			MonthlyBalance:    balance,
			CumulativeBalance: cumulative,
		}
		result.Predictions = append(result.Predictions, p)
		if balance < 0 {
			shortfalls = append(shortfalls, p)
		}
	}

	result.Alert = forecastAlert(shortfalls, cumulative, avgIncome)
	return result
}

func forecastAlert(shortfalls []models.MonthlyProjection, cumulative, avgIncome float64) *models.ForecastAlert {
	if len(shortfalls) > 0 {
		months := make([]string, len(shortfalls))
		for i, s := range shortfalls {
			months[i] = s.Month
		}
		first := shortfalls[0]
		return &models.ForecastAlert{
			Type: models.InsightWarning,
			Message: fmt.Sprintf("%d month(s) are projected to end in deficit. The first is %s with a shortfall of %.2f.",
				len(shortfalls), first.Month, -first.MonthlyBalance),
			ShortfallMonths: months,
		}
	}
	if cumulative > surplusIncomeFactor*avgIncome {
		return &models.ForecastAlert{
			Type:    models.InsightSuccess,
			Message: fmt.Sprintf("You are projected to accumulate a surplus of %.2f. Consider investing part of it.", cumulative),
		}
	}
	return nil
}
