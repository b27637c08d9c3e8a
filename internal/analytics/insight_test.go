package analytics

import (
	"testing"

	"github.com/Dan9191/finance-insights/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func insightSnapshot() *models.FinancialSnapshot {
	txs := groceriesHistory()
	txs = append(txs,
		income(day(2025, 5, 1), 5000),
		expense(day(2025, 5, 10), "dining", 600),
		expense(day(2025, 5, 11), "transport", 800),

		income(day(2025, 6, 1), 10000),
		expense(day(2025, 6, 3), "groceries", 250),
		expense(day(2025, 6, 4), "dining", 1000),
		expense(day(2025, 6, 5), "transport", 400),
		recurring(expense(day(2025, 6, 6), "insurance", 1200)),
	)

	return &models.FinancialSnapshot{
		AsOf:         asOf,
		Transactions: txs,
		Budgets: []models.Budget{
			{Category: "dining", Month: "2025-06", MonthlyLimit: money(1100)},
			{Category: "transport", Month: "2025-06", MonthlyLimit: money(300)},
		},
		SavingsGoals: []models.SavingsGoal{
			{ID: 1, Name: "Car", CurrentAmount: money(0), TargetAmount: money(31000), TargetDate: day(2025, 12, 31)},
			{ID: 2, Name: "Trip", CurrentAmount: money(1000), TargetAmount: money(4100), TargetDate: day(2026, 1, 15)},
			{ID: 3, Name: "Laptop", CurrentAmount: money(2000), TargetAmount: money(2000), TargetDate: day(2025, 9, 1)},
		},
		Debts:       []models.Debt{{Name: "Card", CurrentBalance: money(3000), InterestRate: 15}},
		Investments: []models.Investment{{Quantity: money(9), CurrentPrice: money(100)}},
	}
}

func titles(insights []models.Insight) []string {
	out := make([]string, len(insights))
	for i, in := range insights {
		out[i] = in.Title
	}
	return out
}

func TestGenerateInsights(t *testing.T) {
	report := GenerateInsights(insightSnapshot(), &models.PortfolioMark{Value: 1000}, Options{})

	assert.Equal(t, []string{
		"Unusual Groceries expense",
		"Dining budget almost used",
		"High-interest debt: Card",
		"Dining spending jumped",
		"Review recurring Insurance costs",
		"Car is behind schedule",
		"Portfolio is down",
		"Transport spending down",
		"Trip is on track",
		"Strong savings rate",
	}, titles(report.Insights))

	car := report.Insights[5]
	assert.Equal(t, models.InsightWarning, car.Type)
	assert.Equal(t, 2066.67, car.Data["shortfall"])
	assert.Equal(t, "2026-04", car.Data["projectedMonth"])

	opportunity := report.Insights[4]
	assert.Equal(t, models.InsightInfo, opportunity.Type)
	assert.Equal(t, models.PriorityMedium, opportunity.Priority)

	require.Len(t, report.Notifications, 2)
	assert.Equal(t, "budget:2025-06:transport", report.Notifications[0].Reference)
	assert.Equal(t, models.InsightWarning, report.Notifications[0].Type)
	assert.Equal(t, "goal:3:achieved", report.Notifications[1].Reference)
	assert.Equal(t, models.InsightSuccess, report.Notifications[1].Type)
}

func TestGenerateInsights_PriorityOrdering(t *testing.T) {
	report := GenerateInsights(insightSnapshot(), &models.PortfolioMark{Value: 1000}, Options{})

	for i := 1; i < len(report.Insights); i++ {
		assert.LessOrEqual(t, report.Insights[i-1].Priority.Rank(), report.Insights[i].Priority.Rank(),
			"%q before %q", report.Insights[i-1].Title, report.Insights[i].Title)
	}
}

func TestGenerateInsights_EmptySnapshot(t *testing.T) {
	report := GenerateInsights(&models.FinancialSnapshot{AsOf: asOf}, nil, Options{})

	assert.NotNil(t, report.Insights)
	assert.Empty(t, report.Insights)
	assert.NotNil(t, report.Notifications)
	assert.Empty(t, report.Notifications)
}

func TestGenerateInsights_GoalEdgeCases(t *testing.T) {
	snap := &models.FinancialSnapshot{
		AsOf: asOf,
		Transactions: []models.Transaction{
			income(day(2025, 4, 1), 2000),
			expense(day(2025, 4, 2), "rent", 2500),
			// keeps the 6-month buffer above the goal balances
			expense(day(2025, 6, 2), "rent", 10),
		},
		SavingsGoals: []models.SavingsGoal{
			{Name: "Overdue", CurrentAmount: money(10), TargetAmount: money(100), TargetDate: day(2025, 6, 1)},
			{Name: "Stalled", CurrentAmount: money(10), TargetAmount: money(1210), TargetDate: day(2025, 12, 1)},
			{Name: "Someday", CurrentAmount: money(10), TargetAmount: money(100)},
		},
	}

	report := GenerateInsights(snap, nil, Options{})

	require.Len(t, report.Insights, 2)
	assert.Equal(t, "Overdue deadline reached", report.Insights[0].Title)
	assert.Equal(t, "Stalled is not progressing", report.Insights[1].Title)
	assert.Equal(t, 200.0, report.Insights[1].Data["requiredMonthly"])
}

func TestGenerateInsights_SavingsRateBands(t *testing.T) {
	tests := []struct {
		expenses float64
		title    string
		priority models.Priority
	}{
		{9600, "Savings rate critically low", models.PriorityHigh},
		{9200, "Low savings rate", models.PriorityMedium},
		{8800, "Room to save more", models.PriorityMedium},
		{7000, "Strong savings rate", models.PriorityLow},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			snap := &models.FinancialSnapshot{
				AsOf:         asOf,
				Transactions: []models.Transaction{income(day(2025, 6, 1), 10000), expense(day(2025, 6, 2), "living", tt.expenses)},
			}

			report := GenerateInsights(snap, nil, Options{})

			require.Len(t, report.Insights, 1)
			assert.Equal(t, tt.title, report.Insights[0].Title)
			assert.Equal(t, tt.priority, report.Insights[0].Priority)
		})
	}

	t.Run("exactly five percent is critical", func(t *testing.T) {
		snap := &models.FinancialSnapshot{
			AsOf:         asOf,
			Transactions: []models.Transaction{income(day(2025, 6, 1), 143.60), expense(day(2025, 6, 2), "living", 136.42)},
		}

		report := GenerateInsights(snap, nil, Options{})

		require.Len(t, report.Insights, 1)
		assert.Equal(t, "Savings rate critically low", report.Insights[0].Title)
		assert.Equal(t, 5.0, report.Insights[0].Data["savingsRate"])
		assert.Contains(t, report.Insights[0].Message, "5.0%")
	})

	t.Run("between moderate and healthy says nothing", func(t *testing.T) {
		snap := &models.FinancialSnapshot{
			AsOf:         asOf,
			Transactions: []models.Transaction{income(day(2025, 6, 1), 10000), expense(day(2025, 6, 2), "living", 8200)},
		}

		assert.Empty(t, GenerateInsights(snap, nil, Options{}).Insights)
	})
}

func TestGenerateInsights_ReferenceRateOnDebt(t *testing.T) {
	snap := &models.FinancialSnapshot{
		AsOf:  asOf,
		Debts: []models.Debt{{Name: "Loan", CurrentBalance: money(1000), InterestRate: 30}},
	}

	report := GenerateInsights(snap, nil, Options{ReferenceRate: 21, ReferenceSource: "Bank of Russia key rate"})

	require.Len(t, report.Insights, 1)
	assert.Contains(t, report.Insights[0].Message, "21.00% (Bank of Russia key rate)")
	assert.Equal(t, 21.0, report.Insights[0].Data["referenceRate"])
	assert.Equal(t, "Bank of Russia key rate", report.Insights[0].Data["referenceSource"])
}

func TestSortInsights_IsStable(t *testing.T) {
	insights := []models.Insight{
		{Title: "a", Priority: models.PriorityLow},
		{Title: "b", Priority: models.PriorityHigh},
		{Title: "c", Priority: models.PriorityMedium},
		{Title: "d", Priority: models.PriorityHigh},
		{Title: "e", Priority: models.PriorityLow},
		{Title: "f", Priority: models.PriorityMedium},
	}

	SortInsights(insights)

	assert.Equal(t, []string{"b", "d", "c", "f", "a", "e"}, titles(insights))
}

func TestGenerateInsights_ExactThresholds(t *testing.T) {
	snap := &models.FinancialSnapshot{
		AsOf: asOf,
		Transactions: []models.Transaction{
			expense(day(2025, 5, 4), "dining", 1000),
			expense(day(2025, 6, 4), "dining", 1500),
			expense(day(2025, 6, 5), "groceries", 900),
		},
		Budgets:     []models.Budget{{Category: "groceries", Month: "2025-06", MonthlyLimit: money(1000)}},
		Investments: []models.Investment{{Quantity: money(1), CurrentPrice: money(105)}},
	}

	report := GenerateInsights(snap, &models.PortfolioMark{Value: 100}, Options{})

	// +50% is not a jump; 90% of a budget and +5% of the portfolio are reported
	assert.Equal(t, []string{"Groceries budget almost used", "Portfolio is up"}, titles(report.Insights))
	assert.Equal(t, 90.0, report.Insights[0].Data["percentUsed"])
	assert.Empty(t, report.Notifications)
}
