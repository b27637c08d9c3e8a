package analytics

import (
	"sort"

	"github.com/Dan9191/finance-insights/internal/models"
)

const (
	anomalyMinHistory = 3
	anomalyZThreshold = 2.5
	anomalyMeanFactor = 2.0
	maxAnomalies      = 3
)

// DetectAnomalies flags current-period expenses that are outliers against the
// category statistics of history. A transaction is flagged only when its z-score
// exceeds 2.5 and its amount is more than twice the category mean. Categories with
// fewer than three historical expenses or zero variance are never flagged.
// At most three anomalies are returned, highest z-score first.
func DetectAnomalies(history, current []models.Transaction) []models.Anomaly {
	stats := buildCategoryStats(history)
	if len(stats) == 0 {
		return []models.Anomaly{}
	}

	anomalies := []models.Anomaly{}
	for _, t := range current {
		if !t.IsExpense() {
			continue
		}
		cs, ok := stats[t.Category]
		if !ok || cs.count < anomalyMinHistory || cs.stddev == 0 {
			continue
		}
		amount := toFloat(t.Amount)
		zScore := (amount - cs.mean) / cs.stddev
		if zScore <= anomalyZThreshold || amount <= anomalyMeanFactor*cs.mean {
			continue
		}
		anomalies = append(anomalies, models.Anomaly{
			Category:         t.Category,
			Amount:           amount,
			AvgAmount:        round(cs.mean, 2),
			DeviationPercent: round(ratio(amount-cs.mean, cs.mean)*100, 1),
			ZScore:           round(zScore, 2),
			Date:             t.Date,
		})
	}

	sort.SliceStable(anomalies, func(i, j int) bool {
		return anomalies[i].ZScore > anomalies[j].ZScore
	})
	if len(anomalies) > maxAnomalies {
		anomalies = anomalies[:maxAnomalies]
	}
	return anomalies
}

func buildCategoryStats(history []models.Transaction) map[string]categoryStats {
	amounts := make(map[string][]float64)
	for _, t := range history {
		if !t.IsExpense() {
			continue
		}
		amounts[t.Category] = append(amounts[t.Category], toFloat(t.Amount))
	}

	stats := make(map[string]categoryStats, len(amounts))
	for category, values := range amounts {
		mean, stddev := meanStddev(values)
		stats[category] = categoryStats{mean: mean, stddev: stddev, count: len(values)}
	}
	return stats
}
