package analytics

import (
	"fmt"
	"math"
	"sort"

	"github.com/Dan9191/finance-insights/internal/models"
	"github.com/shopspring/decimal"
)

const categoryAmountFloor = 500.0

// Edges are decimals so an amount exactly on an edge compares equal to it
var (
	categoryGrowthAlert   = decimal.RequireFromString("0.5")
	categoryDropPraise    = decimal.RequireFromString("-0.3")
	budgetWarnPercent     = decimal.NewFromInt(90)
	budgetExceededPercent = decimal.NewFromInt(100)
	portfolioMoveShare    = decimal.RequireFromString("0.05")
)

// savingsCommentary turns a savings rate into a standalone insight. The band
// edges are the ones the health score uses.
var savingsCommentary = []struct {
	when     func(rate float64) bool
	kind     models.InsightType
	priority models.Priority
	title    string
	message  string
}{
	{func(r float64) bool { return r <= savingsRateCritical }, models.InsightWarning, models.PriorityHigh,
		"Savings rate critically low", "You are saving %s of your income this month. Look for expenses to cut."},
	{func(r float64) bool { return r <= savingsRateLow }, models.InsightWarning, models.PriorityMedium,
		"Low savings rate", "You are saving %s of your income. Try to reach at least 10%%."},
	{func(r float64) bool { return r <= savingsRateModerate }, models.InsightInfo, models.PriorityMedium,
		"Room to save more", "You are saving %s of your income. 20%% is a solid long-term target."},
	{func(r float64) bool { return r >= savingsRateHealthy }, models.InsightSuccess, models.PriorityLow,
		"Strong savings rate", "You are saving %s of your income. Well done."},
}

// GenerateInsights runs every analyzer over snap and returns one list of
// insights stably sorted by priority, plus the notifications the caller should
// deliver. previous is the last recorded portfolio value, nil when none exists.
func GenerateInsights(snap *models.FinancialSnapshot, previous *models.PortfolioMark, opts Options) models.InsightReport {
	b := insightBuilder{
		insights:      []models.Insight{},
		notifications: []models.Notification{},
	}

	b.anomalies(snap)
	b.categoryChanges(snap)
	b.budgetThresholds(snap)
	b.opportunities(snap, opts)
	b.goalPacing(snap)
	b.highInterestDebts(snap, opts)
	b.savingsRate(snap)
	b.portfolioMovement(snap, previous)

	SortInsights(b.insights)
	return models.InsightReport{Insights: b.insights, Notifications: b.notifications}
}

// SortInsights orders insights high > medium > low, keeping generation order within a band
func SortInsights(insights []models.Insight) {
	sort.SliceStable(insights, func(i, j int) bool {
		return insights[i].Priority.Rank() < insights[j].Priority.Rank()
	})
}

type insightBuilder struct {
	insights      []models.Insight
	notifications []models.Notification
}

func (b *insightBuilder) add(kind models.InsightType, priority models.Priority, title, message string, data map[string]any) {
	b.insights = append(b.insights, models.Insight{
		Type:     kind,
		Title:    title,
		Message:  message,
		Priority: priority,
		Data:     data,
	})
}

func (b *insightBuilder) notify(kind models.InsightType, priority models.Priority, title, message, reference string) {
	b.notifications = append(b.notifications, models.Notification{
		Title:     title,
		Message:   message,
		Type:      kind,
		Priority:  priority,
		Reference: reference,
	})
}

func (b *insightBuilder) anomalies(snap *models.FinancialSnapshot) {
	history, current := snap.Expenses()
	for _, a := range DetectAnomalies(history, current) {
		b.add(models.InsightWarning, models.PriorityHigh,
			fmt.Sprintf("Unusual %s expense", categoryTitle(a.Category)),
			fmt.Sprintf("An expense of %.2f is %.0f%% above your usual %.2f for %s.", a.Amount, a.DeviationPercent, a.AvgAmount, a.Category),
			map[string]any{"category": a.Category, "amount": a.Amount, "avgAmount": a.AvgAmount, "deviationPercent": a.DeviationPercent})
	}
}

func (b *insightBuilder) categoryChanges(snap *models.FinancialSnapshot) {
	current := snap.CategorySpend(snap.CurrentMonth())
	previous := snap.CategorySpend(snap.PreviousMonth())

	for _, category := range sortedKeys(previous) {
		if !previous[category].IsPositive() {
			continue
		}
		changeRatio := current[category].Sub(previous[category]).Div(previous[category])
		prev, cur, change := toFloat(previous[category]), toFloat(current[category]), toFloat(changeRatio)
		data := map[string]any{"category": category, "current": cur, "previous": prev, "changePercent": round(change*100, 1)}

		switch {
		case changeRatio.GreaterThan(categoryGrowthAlert) && cur > categoryAmountFloor:
			b.add(models.InsightWarning, models.PriorityMedium,
				fmt.Sprintf("%s spending jumped", categoryTitle(category)),
				fmt.Sprintf("You spent %.2f on %s this month, %.0f%% more than last month.", cur, category, change*100),
				data)
		case changeRatio.LessThan(categoryDropPraise) && prev > categoryAmountFloor:
			b.add(models.InsightSuccess, models.PriorityLow,
				fmt.Sprintf("%s spending down", categoryTitle(category)),
				fmt.Sprintf("You spent %.0f%% less on %s than last month.", -change*100, category),
				data)
		}
	}
}

func (b *insightBuilder) budgetThresholds(snap *models.FinancialSnapshot) {
	month := snap.CurrentMonth()
	spend := snap.CategorySpend(month)
	for _, budget := range snap.Budgets {
		if budget.Month != month || !budget.MonthlyLimit.IsPositive() {
			continue
		}
		usedPercent := spend[budget.Category].Mul(hundred).Div(budget.MonthlyLimit)
		limit, spent, used := toFloat(budget.MonthlyLimit), toFloat(spend[budget.Category]), toFloat(usedPercent)

		switch {
		case usedPercent.GreaterThanOrEqual(budgetExceededPercent):
			b.notify(models.InsightWarning, models.PriorityHigh,
				fmt.Sprintf("Budget exceeded: %s", categoryTitle(budget.Category)),
				fmt.Sprintf("You've spent %.2f of your %.2f %s budget for %s.", spent, limit, budget.Category, month),
				fmt.Sprintf("budget:%s:%s", month, budget.Category))
		case usedPercent.GreaterThanOrEqual(budgetWarnPercent):
			b.add(models.InsightWarning, models.PriorityHigh,
				fmt.Sprintf("%s budget almost used", categoryTitle(budget.Category)),
				fmt.Sprintf("You've used %.0f%% of your %s budget. %.2f remains.", used, budget.Category, limit-spent),
				map[string]any{"category": budget.Category, "spent": spent, "limit": limit, "percentUsed": round(used, 1)})
		}
	}
}

func (b *insightBuilder) opportunities(snap *models.FinancialSnapshot, opts Options) {
	for _, o := range DetectOpportunities(snap, opts) {
		// high-interest debt is reported by highInterestDebts
		if o.Type == models.OpportunityDebtOptimization {
			continue
		}
		b.add(models.InsightInfo, o.Priority, o.Title, o.Action,
			map[string]any{"type": string(o.Type), "potential": o.Potential, "difficulty": o.Difficulty})
	}
}

// monthlySavings is the average monthly net of completed months, the same bucketing the forecast uses
func monthlySavings(snap *models.FinancialSnapshot) (float64, bool) {
	cur := snap.CurrentMonth()
	var completed []models.Transaction
	for _, t := range snap.Transactions {
		if key := t.MonthKey(); key != "" && key < cur {
			completed = append(completed, t)
		}
	}
	buckets := bucketByMonth(completed)
	if len(buckets) == 0 {
		return 0, false
	}
	nets := make([]float64, len(buckets))
	for i, bucket := range buckets {
		nets[i] = bucket.income - bucket.expenses
	}
	return average(nets), true
}

func monthsBetween(from, to string) int {
	f, err := models.ParseMonthKey(from)
	if err != nil {
		return 0
	}
	t, err := models.ParseMonthKey(to)
	if err != nil {
		return 0
	}
	return (t.Year()-f.Year())*12 + int(t.Month()) - int(f.Month())
}

func (b *insightBuilder) goalPacing(snap *models.FinancialSnapshot) {
	month := snap.CurrentMonth()
	saving, known := monthlySavings(snap)

	for _, g := range snap.SavingsGoals {
		if !g.TargetAmount.IsPositive() {
			continue
		}
		if g.Achieved() {
			b.notify(models.InsightSuccess, models.PriorityMedium,
				fmt.Sprintf("Goal achieved: %s", g.Name),
				fmt.Sprintf("You reached your %s target of %.2f.", g.Name, toFloat(g.TargetAmount)),
				fmt.Sprintf("goal:%d:achieved", g.ID))
			continue
		}
		if g.TargetDate.IsZero() {
			continue
		}

		remaining := toFloat(g.TargetAmount.Sub(g.CurrentAmount))
		targetMonth := models.MonthKey(g.TargetDate)
		monthsLeft := monthsBetween(month, targetMonth)
		data := map[string]any{"goal": g.Name, "remaining": round(remaining, 2), "targetMonth": targetMonth}

		if monthsLeft <= 0 {
			b.add(models.InsightWarning, models.PriorityHigh,
				fmt.Sprintf("%s deadline reached", g.Name),
				fmt.Sprintf("%.2f is still missing and the target date has arrived. Consider moving the date.", remaining),
				data)
			continue
		}
		if !known {
			continue
		}

		required := remaining / float64(monthsLeft)
		data["requiredMonthly"] = round(required, 2)
		data["currentMonthly"] = round(saving, 2)

		if saving <= 0 {
			b.add(models.InsightWarning, models.PriorityHigh,
				fmt.Sprintf("%s is not progressing", g.Name),
				fmt.Sprintf("You are not saving at the moment. Reaching %s needs %.2f a month.", g.Name, required),
				data)
			continue
		}

		monthsNeeded := int(math.Ceil(remaining / saving))
		arrival := models.AddMonths(month, monthsNeeded)
		data["projectedMonth"] = arrival
		if monthsNeeded > monthsLeft {
			shortfall := required - saving
			data["shortfall"] = round(shortfall, 2)
			b.add(models.InsightWarning, models.PriorityMedium,
				fmt.Sprintf("%s is behind schedule", g.Name),
				fmt.Sprintf("At %.2f a month you reach %s in %s instead of %s. Save %.2f more each month to stay on track.",
					saving, g.Name, arrival, targetMonth, shortfall),
				data)
			continue
		}
		b.add(models.InsightSuccess, models.PriorityLow,
			fmt.Sprintf("%s is on track", g.Name),
			fmt.Sprintf("At your current pace you reach %s by %s, ahead of %s.", g.Name, arrival, targetMonth),
			data)
	}
}

func (b *insightBuilder) highInterestDebts(snap *models.FinancialSnapshot, opts Options) {
	for _, d := range snap.Debts {
		if d.InterestRate <= highInterestRate {
			continue
		}
		message := fmt.Sprintf("%s charges %.1f%% a year on %.2f. Pay it down first or refinance.", d.Name, d.InterestRate, toFloat(d.CurrentBalance))
		data := map[string]any{"debt": d.Name, "interestRate": d.InterestRate, "balance": toFloat(d.CurrentBalance)}
		if opts.ReferenceRate > 0 {
			message += fmt.Sprintf(" For reference: %s.", opts.referenceLabel())
			data["referenceRate"] = opts.ReferenceRate
			if opts.ReferenceSource != "" {
				data["referenceSource"] = opts.ReferenceSource
			}
		}
		b.add(models.InsightWarning, models.PriorityHigh, fmt.Sprintf("High-interest debt: %s", d.Name), message, data)
	}
}

func (b *insightBuilder) savingsRate(snap *models.FinancialSnapshot) {
	income, expenses := snap.MonthTotals(snap.CurrentMonth())
	if !income.IsPositive() {
		return
	}
	rate := savingsRate(toFloat(income), toFloat(expenses))
	for _, c := range savingsCommentary {
		if !c.when(rate) {
			continue
		}
		b.add(c.kind, c.priority, c.title, fmt.Sprintf(c.message, formatRate(rate)),
			map[string]any{"savingsRate": round(rate, 1)})
		return
	}
}

func (b *insightBuilder) portfolioMovement(snap *models.FinancialSnapshot, previous *models.PortfolioMark) {
	if previous == nil || previous.Value <= 0 {
		return
	}
	current := snap.PortfolioValue()
	last := decimal.NewFromFloat(previous.Value)
	changeRatio := current.Sub(last).Div(last)
	value, change := toFloat(current), toFloat(changeRatio)
	data := map[string]any{"value": round(value, 2), "previousValue": previous.Value, "changePercent": round(change*100, 1)}

	switch {
	case changeRatio.GreaterThanOrEqual(portfolioMoveShare):
		b.add(models.InsightSuccess, models.PriorityLow, "Portfolio is up",
			fmt.Sprintf("Your portfolio grew %.1f%% to %.2f.", change*100, value), data)
	case changeRatio.LessThanOrEqual(portfolioMoveShare.Neg()):
		b.add(models.InsightWarning, models.PriorityMedium, "Portfolio is down",
			fmt.Sprintf("Your portfolio fell %.1f%% to %.2f.", -change*100, value), data)
	}
}
