package orchestrator

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenlabs01/Diverss/internal/models"
)

func TestMerge(t *testing.T) {
	stocks := []models.StockVerdict{
		{Symbol: "A", Quantity: 10, AvgPrice: 100.123, LTP: 110.456, WeightedScore: 3.5, Verdict: models.VerdictHold},
		{Symbol: "B", Quantity: 3, AvgPrice: 50.5, LTP: 45.25, WeightedScore: 2.25, Verdict: models.VerdictReduce},
		{Symbol: "C", Quantity: 0.1, AvgPrice: 0.1, LTP: 0.2, WeightedScore: 2.875, Verdict: models.VerdictHold},
	}

	summary := Merge(stocks)

	// 1001.23 + 151.5 + 0.01
	assert.Equal(t, 1152.74, summary.TotalInvested)
	// 1104.56 + 135.75 + 0.02
	assert.Equal(t, 1240.33, summary.CurrentValue)
	assert.Equal(t, 87.59, summary.TotalPnL)
	assert.Equal(t, 3, summary.StockCount)
	require.NotNil(t, summary.PortfolioScore)
	assert.Equal(t, 2.88, *summary.PortfolioScore)
	assert.Equal(t, map[models.Verdict]int{models.VerdictHold: 2, models.VerdictReduce: 1}, summary.VerdictCounts)
}

func TestMergeEmpty(t *testing.T) {
	summary := Merge(nil)

	assert.Zero(t, summary.TotalInvested)
	assert.Zero(t, summary.StockCount)
	assert.Nil(t, summary.PortfolioScore)

	raw, err := json.Marshal(summary)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"portfolioScore":null`)
}
