package analytics

import (
	"fmt"
	"sort"

	"github.com/Dan9191/finance-insights/internal/models"
	"github.com/shopspring/decimal"
)

const (
	recurringCategoryMin  = 1000.0
	recurringCategoryHigh = 2000.0
	recurringSavingsShare = 0.15
	idleCashBufferMonths  = 6.0
	idleCashMaxHoldings   = 5
	idleCashYield         = 0.07
	idleCashAllocation    = 0.30
	highInterestRate      = 12.0
	refinanceSavingsShare = 0.05
	underSpentShare       = 0.70
	reallocationShare     = 0.50
	highYearlyIncome      = 200000.0
	taxOptimizationShare  = 0.03
	maxOpportunities      = 5
	difficultyEasy        = "easy"
	difficultyMedium      = "medium"
	difficultyHard        = "hard"
)

// Options carry optional market context into the analyzers
type Options struct {
	// ReferenceRate is a lending rate in percent, 0 when unknown
	ReferenceRate float64
	// ReferenceSource names where ReferenceRate comes from
	ReferenceSource string
}

// referenceLabel renders the reference rate together with its source
func (o Options) referenceLabel() string {
	if o.ReferenceSource == "" {
		return fmt.Sprintf("%.2f%%", o.ReferenceRate)
	}
	return fmt.Sprintf("%.2f%% (%s)", o.ReferenceRate, o.ReferenceSource)
}

// DetectOpportunities scans the snapshot for cost reduction, idle cash, debt
// refinancing, budget reallocation and tax optimization opportunities.
// Results are ordered by descending potential and capped at five.
func DetectOpportunities(snap *models.FinancialSnapshot, opts Options) []models.Opportunity {
	month := snap.CurrentMonth()
	_, monthlyExpenses := snap.MonthTotals(month)

	var opportunities []models.Opportunity
	opportunities = append(opportunities, recurringCostOpportunities(snap, month)...)
	if o, ok := idleCashOpportunity(snap, toFloat(monthlyExpenses)); ok {
		opportunities = append(opportunities, o)
	}
	if o, ok := debtOpportunity(snap.Debts, opts); ok {
		opportunities = append(opportunities, o)
	}
	opportunities = append(opportunities, budgetOpportunities(snap)...)
	if o, ok := taxOpportunity(snap); ok {
		opportunities = append(opportunities, o)
	}

	sort.SliceStable(opportunities, func(i, j int) bool {
		return opportunities[i].Potential > opportunities[j].Potential
	})
	if len(opportunities) > maxOpportunities {
		opportunities = opportunities[:maxOpportunities]
	}
	if opportunities == nil {
		opportunities = []models.Opportunity{}
	}
	return opportunities
}

func recurringCostOpportunities(snap *models.FinancialSnapshot, month string) []models.Opportunity {
	totals := make(map[string]decimal.Decimal)
	for _, t := range snap.Transactions {
		if !t.IsExpense() || !t.IsRecurring || t.MonthKey() != month {
			continue
		}
		totals[t.Category] = totals[t.Category].Add(t.Amount)
	}

	var result []models.Opportunity
	for _, category := range sortedKeys(totals) {
		total := toFloat(totals[category])
		if total <= recurringCategoryMin {
			continue
		}
		priority := models.PriorityMedium
		if total > recurringCategoryHigh {
			priority = models.PriorityHigh
		}
		result = append(result, models.Opportunity{
			Type:       models.OpportunityCostReduction,
			Title:      fmt.Sprintf("Review recurring %s costs", categoryTitle(category)),
			Potential:  round(total*recurringSavingsShare, 2),
			Difficulty: difficultyMedium,
			Action:     fmt.Sprintf("Renegotiate or cancel recurring %s payments totalling %.2f a month.", category, total),
			Priority:   priority,
		})
	}
	return result
}

func idleCashOpportunity(snap *models.FinancialSnapshot, monthlyExpenses float64) (models.Opportunity, bool) {
	savings := toFloat(snap.GoalSavings())
	buffer := idleCashBufferMonths * monthlyExpenses
	if savings <= buffer || len(snap.Investments) >= idleCashMaxHoldings {
		return models.Opportunity{}, false
	}
	idle := savings - buffer
	return models.Opportunity{
		Type:       models.OpportunityInvestment,
		Title:      "Put idle cash to work",
		Potential:  round(idle*idleCashYield, 2),
		Difficulty: difficultyMedium,
		Action:     fmt.Sprintf("Invest about %.2f (30%% of the %.2f above your emergency buffer) in a diversified fund.", idle*idleCashAllocation, idle),
		Priority:   models.PriorityMedium,
	}, true
}

func debtOpportunity(debts []models.Debt, opts Options) (models.Opportunity, bool) {
	var principal decimal.Decimal
	for _, d := range debts {
		if d.InterestRate > highInterestRate {
			principal = principal.Add(d.CurrentBalance)
		}
	}
	if !principal.IsPositive() {
		return models.Opportunity{}, false
	}
	action := "Refinance high-interest debt at a lower rate or consolidate it."
	if opts.ReferenceRate > 0 {
		action = fmt.Sprintf("Refinance high-interest debt towards the reference rate of %s or consolidate it.", opts.referenceLabel())
	}
	return models.Opportunity{
		Type:       models.OpportunityDebtOptimization,
		Title:      "Refinance high-interest debt",
		Potential:  round(toFloat(principal)*refinanceSavingsShare, 2),
		Difficulty: difficultyHard,
		Action:     action,
		Priority:   models.PriorityHigh,
	}, true
}

// budgetOpportunities reviews the budgets of the last completed month only;
// the current month is still being spent and older months are settled.
func budgetOpportunities(snap *models.FinancialSnapshot) []models.Opportunity {
	month := snap.PreviousMonth()
	spend := snap.CategorySpend(month)
	var result []models.Opportunity
	for _, b := range snap.Budgets {
		if b.Month != month || !b.MonthlyLimit.IsPositive() {
			continue
		}
		limit := toFloat(b.MonthlyLimit)
		spent := toFloat(spend[b.Category])
		if spent >= underSpentShare*limit {
			continue
		}
		unspent := limit - spent
		result = append(result, models.Opportunity{
			Type:       models.OpportunityBudgetReallocation,
			Title:      fmt.Sprintf("Reallocate unused %s budget", categoryTitle(b.Category)),
			Potential:  round(unspent*reallocationShare, 2),
			Difficulty: difficultyEasy,
			Action:     fmt.Sprintf("Only %.2f of %.2f was spent on %s in %s. Move part of the rest to savings.", spent, limit, b.Category, b.Month),
			Priority:   models.PriorityLow,
		})
	}
	return result
}

func taxOpportunity(snap *models.FinancialSnapshot) (models.Opportunity, bool) {
	yearly := toFloat(snap.YearlyIncome())
	if yearly <= highYearlyIncome || len(snap.Investments) == 0 {
		return models.Opportunity{}, false
	}
	return models.Opportunity{
		Type:       models.OpportunityTaxOptimization,
		Title:      "Optimize taxes on investments",
		Potential:  round(yearly*taxOptimizationShare, 2),
		Difficulty: difficultyHard,
		Action:     "Use tax-advantaged accounts and offset gains with losses where possible.",
		Priority:   models.PriorityMedium,
	}, true
}

func sortedKeys(m map[string]decimal.Decimal) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
