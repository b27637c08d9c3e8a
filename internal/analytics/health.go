package analytics

import (
	"fmt"

	"github.com/Dan9191/finance-insights/internal/models"
	"github.com/shopspring/decimal"
)

// Savings-rate band edges, in percent. Shared by the health score and the
// savings-rate insights so both speak the same language.
const (
	savingsRateCritical = 5.0
	savingsRateLow      = 10.0
	savingsRateModerate = 15.0
	savingsRateHealthy  = 20.0
)

// healthMetrics are the derived ratios every scoring rule reads from. Ratios
// carry the one decimal they are reported with.
type healthMetrics struct {
	savingsRate     float64
	debtToIncome    float64
	emergencyMonths float64
	portfolioValue  float64
	totalSavings    float64
	monthlyExpenses float64
	goalCount       int
	goalsOnTrack    float64
}

type scoreBand struct {
	when           func(m healthMetrics) bool
	impact         int
	recommendation string
}

// scoreRule is one factor; the first matching band is applied
type scoreRule struct {
	factor string
	bands  []scoreBand
}

var healthRules = []scoreRule{
	{
		factor: "Savings rate",
		bands: []scoreBand{
			{func(m healthMetrics) bool { return m.savingsRate <= savingsRateCritical }, -30,
				"You save almost nothing of your income. Cut discretionary spending and aim for at least 10%."},
			{func(m healthMetrics) bool { return m.savingsRate <= savingsRateLow }, -20,
				"Your savings rate is low. Automate a monthly transfer to savings."},
			{func(m healthMetrics) bool { return m.savingsRate <= savingsRateModerate }, -10,
				"You are saving, but aiming for 20% of income builds wealth faster."},
			{func(m healthMetrics) bool { return m.savingsRate >= savingsRateHealthy }, 0,
				"Excellent savings rate. Keep it up."},
		},
	},
	{
		factor: "Debt-to-income ratio",
		bands: []scoreBand{
			{func(m healthMetrics) bool { return m.debtToIncome > 40 }, -25,
				"Debt payments take over 40% of income. Prioritize paying down the most expensive debt."},
			{func(m healthMetrics) bool { return m.debtToIncome > 30 }, -15,
				"Debt payments are high relative to income. Avoid taking on new debt."},
			{func(m healthMetrics) bool { return m.debtToIncome > 20 }, -5,
				"Debt load is manageable but worth reducing."},
		},
	},
	{
		factor: "Emergency fund",
		bands: []scoreBand{
			{func(m healthMetrics) bool { return m.emergencyMonths < 1 }, -20,
				"Build an emergency fund covering at least one month of expenses."},
			{func(m healthMetrics) bool { return m.emergencyMonths < 3 }, -15,
				"Grow your emergency fund to three months of expenses."},
			{func(m healthMetrics) bool { return m.emergencyMonths < 6 }, -5,
				"Aim for six months of expenses in your emergency fund."},
		},
	},
	{
		factor: "Investment diversification",
		bands: []scoreBand{
			{func(m healthMetrics) bool {
				return m.portfolioValue == 0 && m.totalSavings > 6*m.monthlyExpenses
			}, -15, "Your cash buffer is healthy. Consider investing part of the surplus."},
			{func(m healthMetrics) bool {
				return m.portfolioValue > 0 && m.portfolioValue < 0.3*m.totalSavings
			}, -8, "Your portfolio is small relative to your savings. Consider diversifying further."},
		},
	},
	{
		factor: "Goal progress",
		bands: []scoreBand{
			{func(m healthMetrics) bool { return m.goalCount > 0 && m.goalsOnTrack < 0.5 }, -10,
				"Most savings goals are below half way. Review their targets or raise contributions."},
		},
	},
}

var healthGrades = []struct {
	min   int
	label string
}{
	{90, "Excellent"},
	{80, "Very Good"},
	{70, "Good"},
	{60, "Fair"},
	{0, "Needs Improvement"},
}

// HealthFiguresFor aggregates the current-period totals of a snapshot
func HealthFiguresFor(snap *models.FinancialSnapshot) models.HealthFigures {
	income, expenses := snap.MonthTotals(snap.CurrentMonth())
	return models.HealthFigures{
		TotalIncome:    toFloat(income),
		TotalExpenses:  toFloat(expenses),
		TotalDebt:      toFloat(snap.TotalDebt()),
		TotalSavings:   toFloat(snap.TotalSavings()),
		PortfolioValue: toFloat(snap.PortfolioValue()),
		SavingsGoals:   snap.SavingsGoals,
		Debts:          snap.Debts,
	}
}

// ScoreHealth computes the health score for the current period of snap
func ScoreHealth(snap *models.FinancialSnapshot) models.HealthScoreResult {
	return ScoreFigures(HealthFiguresFor(snap))
}

// ScoreFigures computes a 0-100 health score from pre-aggregated figures.
// Every rule contributes at most one factor; the score is clamped to [0, 100].
func ScoreFigures(f models.HealthFigures) models.HealthScoreResult {
	m := computeHealthMetrics(f)

	score := 100
	factors := []models.HealthFactor{}
	for _, rule := range healthRules {
		for _, band := range rule.bands {
			if !band.when(m) {
				continue
			}
			score += band.impact
			factors = append(factors, models.HealthFactor{
				Factor:         rule.factor,
				Impact:         band.impact,
				Recommendation: band.recommendation,
			})
			break
		}
	}
	score = clamp(score, 0, 100)

	return models.HealthScoreResult{
		Score:               score,
		Grade:               gradeFor(score),
		Factors:             factors,
		SavingsRate:         models.Rate(m.savingsRate),
		DebtToIncomeRatio:   models.Rate(m.debtToIncome),
		EmergencyFundMonths: models.Rate(m.emergencyMonths),
	}
}

func computeHealthMetrics(f models.HealthFigures) healthMetrics {
	payments := decimal.Zero
	for _, d := range f.Debts {
		payments = payments.Add(d.MonthlyPayment)
	}

	goalCount, onTrack := 0, 0
	for _, g := range f.SavingsGoals {
		if !g.TargetAmount.IsPositive() {
			continue
		}
		goalCount++
		if g.Progress() >= 0.5 {
			onTrack++
		}
	}

	return healthMetrics{
		savingsRate:     savingsRate(f.TotalIncome, f.TotalExpenses),
		debtToIncome:    percent(payments, decimal.NewFromFloat(f.TotalIncome)),
		emergencyMonths: round(ratio(f.TotalSavings, f.TotalExpenses), 1),
		portfolioValue:  f.PortfolioValue,
		totalSavings:    f.TotalSavings,
		monthlyExpenses: f.TotalExpenses,
		goalCount:       goalCount,
		goalsOnTrack:    ratio(float64(onTrack), float64(goalCount)),
	}
}

func savingsRate(income, expenses float64) float64 {
	in := decimal.NewFromFloat(income)
	return percent(in.Sub(decimal.NewFromFloat(expenses)), in)
}

func gradeFor(score int) string {
	for _, g := range healthGrades {
		if score >= g.min {
			return g.label
		}
	}
	return healthGrades[len(healthGrades)-1].label
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// formatRate renders a percentage with one decimal place
func formatRate(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}
