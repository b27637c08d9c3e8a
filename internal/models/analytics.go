package models

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"time"
)

// InsightType classifies an insight or notification
type InsightType string

const (
	InsightWarning InsightType = "warning"
	InsightInfo    InsightType = "info"
	InsightSuccess InsightType = "success"
)

// Priority is the display band of an insight
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank orders priorities: lower rank is shown first
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

// Anomaly represents a current-period expense that is an outlier within its category
type Anomaly struct {
	Category         string    `json:"category"`
	Amount           float64   `json:"amount"`
	AvgAmount        float64   `json:"avg_amount"`
	DeviationPercent float64   `json:"deviation_percent"`
	ZScore           float64   `json:"z_score"`
	Date             time.Time `json:"date"`
}

// HealthFigures are the current-period totals the health score is computed from
type HealthFigures struct {
	TotalIncome    float64       `json:"total_income"`
	TotalExpenses  float64       `json:"total_expenses"`
	TotalDebt      float64       `json:"total_debt"`
	TotalSavings   float64       `json:"total_savings"`
	PortfolioValue float64       `json:"portfolio_value"`
	SavingsGoals   []SavingsGoal `json:"savings_goals"`
	Debts          []Debt        `json:"debts"`
}

// HealthFactor records one scoring rule's effect on the health score
type HealthFactor struct {
	Factor         string `json:"factor"`
	Impact         int    `json:"impact"`
	Recommendation string `json:"recommendation"`
}

// Rate is a ratio reported with one decimal. It is encoded as a fixed-point
// string ("5.0") so clients see the same figure the score bands were checked against.
type Rate float64

func (r Rate) String() string {
	return strconv.FormatFloat(float64(r), 'f', 1, 64)
}

func (r Rate) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

func (r *Rate) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("failed to decode rate: %w", err)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("failed to parse rate %q: %w", s, err)
	}
	*r = Rate(v)
	return nil
}

// HealthScoreResult represents the composite financial health score
type HealthScoreResult struct {
	Score               int            `json:"score"`
	Grade               string         `json:"grade"`
	Factors             []HealthFactor `json:"factors"`
	SavingsRate         Rate           `json:"savings_rate"`
	DebtToIncomeRatio   Rate           `json:"debt_to_income_ratio"`
	EmergencyFundMonths Rate           `json:"emergency_fund_months"`
}

// TopFactors returns at most n factors in evaluation order
func (r HealthScoreResult) TopFactors(n int) []HealthFactor {
	if n >= len(r.Factors) {
		return r.Factors
	}
	return r.Factors[:n]
}

// Clone returns a copy that shares no slices with r
func (r HealthScoreResult) Clone() HealthScoreResult {
	r.Factors = slices.Clone(r.Factors)
	return r
}

// MonthlyProjection represents the projected figures of one future month
type MonthlyProjection struct {
	Month             string  `json:"month"` // Format: YYYY-MM
	ProjectedIncome   float64 `json:"projected_income"`
	ProjectedExpenses float64 `json:"projected_expenses"`
	MonthlyBalance    float64 `json:"monthly_balance"`
	CumulativeBalance float64 `json:"cumulative_balance"`
}

// ForecastAlert summarizes a forecast for the user
type ForecastAlert struct {
	Type            InsightType `json:"type"`
	Message         string      `json:"message"`
	ShortfallMonths []string    `json:"shortfall_months,omitempty"`
}

// ForecastResult represents the balance forecast for the next months
type ForecastResult struct {
	Predictions []MonthlyProjection `json:"predictions"`
	Alert       *ForecastAlert      `json:"alert"`
	AvgIncome   float64             `json:"avg_income"`
	AvgExpenses float64             `json:"avg_expenses"`
}

// Clone returns a copy that shares no slices or pointers with r
func (r ForecastResult) Clone() ForecastResult {
	r.Predictions = slices.Clone(r.Predictions)
	if r.Alert != nil {
		alert := *r.Alert
		alert.ShortfallMonths = slices.Clone(alert.ShortfallMonths)
		r.Alert = &alert
	}
	return r
}

// OpportunityType classifies a detected opportunity
type OpportunityType string

const (
	OpportunityCostReduction      OpportunityType = "cost_reduction"
	OpportunityInvestment         OpportunityType = "investment"
	OpportunityDebtOptimization   OpportunityType = "debt_optimization"
	OpportunityBudgetReallocation OpportunityType = "budget_reallocation"
	OpportunityTaxOptimization    OpportunityType = "tax_optimization"
)

// Opportunity represents an actionable change with an estimated monetary benefit
type Opportunity struct {
	Type       OpportunityType `json:"type"`
	Title      string          `json:"title"`
	Potential  float64         `json:"potential"`
	Difficulty string          `json:"difficulty"`
	Action     string          `json:"action"`
	Priority   Priority        `json:"priority"`
}

// Insight represents one ranked, structured observation about the user's finances
type Insight struct {
	Type     InsightType    `json:"type"`
	Title    string         `json:"title"`
	Message  string         `json:"message"`
	Priority Priority       `json:"priority"`
	Data     map[string]any `json:"data,omitempty"`
}

// Notification is a message for the notification sink. Reference identifies the
// underlying event so the sender can avoid repeating it.
type Notification struct {
	Title     string      `json:"title"`
	Message   string      `json:"message"`
	Type      InsightType `json:"type"`
	Priority  Priority    `json:"priority"`
	Reference string      `json:"reference"`
}

// InsightReport is the output of one insight generation run
type InsightReport struct {
	Insights      []Insight      `json:"insights"`
	Notifications []Notification `json:"notifications"`
}

// Clone returns a copy that shares no slices or Data maps with r
func (r InsightReport) Clone() InsightReport {
	r.Insights = slices.Clone(r.Insights)
	for i := range r.Insights {
		r.Insights[i].Data = maps.Clone(r.Insights[i].Data)
	}
	r.Notifications = slices.Clone(r.Notifications)
	return r
}

// PortfolioMark is a recorded portfolio value used as the previous snapshot for movement insights
type PortfolioMark struct {
	Value      float64   `json:"value"`
	RecordedAt time.Time `json:"recorded_at"`
}
