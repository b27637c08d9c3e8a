// Package analytics derives anomaly flags, a health score, a balance forecast,
// opportunities and ranked insights from a FinancialSnapshot.
//
// Every function here is pure: no I/O, no clock, no shared state. Callers own
// fetching snapshots, caching results and delivering notifications.
package analytics

import (
	"math"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// categoryStats holds descriptive statistics for one expense category
type categoryStats struct {
	mean   float64
	stddev float64
	count  int
}

func meanStddev(values []float64) (mean, stddev float64) {
	if len(values) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean = sum / float64(len(values))

	var varianceSum float64
	for _, v := range values {
		diff := v - mean
		varianceSum += diff * diff
	}
	return mean, math.Sqrt(varianceSum / float64(len(values)))
}

func average(values []float64) float64 {
	m, _ := meanStddev(values)
	return m
}

func ratio(num, denom float64) float64 {
	if denom <= 0 {
		return 0
	}
	return num / denom
}

var hundred = decimal.NewFromInt(100)

// percent returns num/denom in percent rounded to one decimal, 0 when denom is
// not positive. Band edges are compared against this figure, so it is computed
// in decimal: 7.18 of 143.60 is exactly 5.0.
func percent(num, denom decimal.Decimal) float64 {
	if !denom.IsPositive() {
		return 0
	}
	return num.Mul(hundred).Div(denom).Round(1).InexactFloat64()
}

func round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

func toFloat(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

// categoryTitle builds a fresh Caser per call; Casers are not safe for concurrent use.
func categoryTitle(category string) string {
	if category == "" {
		return "Uncategorized"
	}
	return cases.Title(language.Und).String(category)
}
