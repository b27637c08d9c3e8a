package analytics

import (
	"testing"

	"github.com/Dan9191/finance-insights/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func groceriesHistory() []models.Transaction {
	var history []models.Transaction
	for i, amount := range []float64{100, 110, 90, 105, 95} {
		history = append(history, expense(day(2025, 5, i+1), "groceries", amount))
	}
	return history
}

func TestDetectAnomalies(t *testing.T) {
	t.Run("flags large grocery expense", func(t *testing.T) {
		current := []models.Transaction{expense(day(2025, 6, 3), "groceries", 250)}

		anomalies := DetectAnomalies(groceriesHistory(), current)

		require.Len(t, anomalies, 1)
		a := anomalies[0]
		assert.Equal(t, "groceries", a.Category)
		assert.Equal(t, 250.0, a.Amount)
		assert.Equal(t, 100.0, a.AvgAmount)
		assert.Equal(t, 150.0, a.DeviationPercent)
		assert.InDelta(t, 21.21, a.ZScore, 0.01)
	})

	t.Run("high z-score without doubling the mean is not flagged", func(t *testing.T) {
		// z = (150-100)/7.07 ≈ 7.1 but 150 <= 2 × 100
		current := []models.Transaction{expense(day(2025, 6, 3), "groceries", 150)}

		assert.Empty(t, DetectAnomalies(groceriesHistory(), current))
	})

	t.Run("categories with fewer than three records are never flagged", func(t *testing.T) {
		history := []models.Transaction{
			expense(day(2025, 5, 1), "travel", 100),
			expense(day(2025, 5, 2), "travel", 120),
		}
		current := []models.Transaction{expense(day(2025, 6, 3), "travel", 10000)}

		assert.Empty(t, DetectAnomalies(history, current))
	})

	t.Run("zero variance category is skipped", func(t *testing.T) {
		history := []models.Transaction{
			expense(day(2025, 5, 1), "rent", 3000),
			expense(day(2025, 4, 1), "rent", 3000),
			expense(day(2025, 3, 1), "rent", 3000),
		}
		current := []models.Transaction{expense(day(2025, 6, 1), "rent", 9000)}

		assert.Empty(t, DetectAnomalies(history, current))
	})

	t.Run("empty history yields empty result", func(t *testing.T) {
		current := []models.Transaction{expense(day(2025, 6, 3), "groceries", 250)}

		anomalies := DetectAnomalies(nil, current)

		assert.NotNil(t, anomalies)
		assert.Empty(t, anomalies)
	})

	t.Run("returns top three by z-score", func(t *testing.T) {
		current := []models.Transaction{
			expense(day(2025, 6, 1), "groceries", 250),
			expense(day(2025, 6, 2), "groceries", 400),
			expense(day(2025, 6, 3), "groceries", 300),
			expense(day(2025, 6, 4), "groceries", 350),
		}

		anomalies := DetectAnomalies(groceriesHistory(), current)

		require.Len(t, anomalies, 3)
		assert.Equal(t, 400.0, anomalies[0].Amount)
		assert.Equal(t, 350.0, anomalies[1].Amount)
		assert.Equal(t, 300.0, anomalies[2].Amount)
	})

	t.Run("income in the current period is ignored", func(t *testing.T) {
		current := []models.Transaction{income(day(2025, 6, 3), 50000)}

		assert.Empty(t, DetectAnomalies(groceriesHistory(), current))
	})
}
