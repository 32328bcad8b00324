package orchestrator

import (
	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"

	"github.com/tenlabs01/Diverss/internal/models"
)

// Merge folds verdicts into an aggregate. Money is accumulated exactly and
// rounded to two decimals only at the end. PortfolioScore is the mean
// weighted score, or nil when there are no stocks.
func Merge(stocks []models.StockVerdict) models.AggregateSummary {
	invested := decimal.Zero
	current := decimal.Zero
	scores := make([]float64, 0, len(stocks))
	counts := make(map[models.Verdict]int)

	for _, s := range stocks {
		qty := decimal.NewFromFloat(s.Quantity)
		invested = invested.Add(decimal.NewFromFloat(s.AvgPrice).Mul(qty))
		current = current.Add(decimal.NewFromFloat(s.LTP).Mul(qty))
		scores = append(scores, s.WeightedScore)
		if s.Verdict != "" {
			counts[s.Verdict]++
		}
	}

	summary := models.AggregateSummary{
		TotalInvested: round2(invested),
		CurrentValue:  round2(current),
		TotalPnL:      round2(current.Sub(invested)),
		StockCount:    len(stocks),
		VerdictCounts: counts,
	}

	if mean, err := stats.Mean(scores); err == nil {
		score := round2(decimal.NewFromFloat(mean))
		summary.PortfolioScore = &score
	}

	return summary
}

func round2(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}
