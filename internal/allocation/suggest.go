package allocation

import (
	"math"

	"github.com/tenlabs01/Diverss/internal/models"
)

var youngGrowth = []models.AssetClass{models.AssetStocks, models.AssetMutualFunds}

// Suggest builds the model allocation for a profile: the base model for the
// appetite, shifted by horizon and age, then normalized.
func (s *Scorer) Suggest(risk models.RiskAppetite, horizon models.Horizon, age float64) models.Allocation {
	alloc := s.tables.baseModel(risk)

	if delta := s.tables.HorizonShifts[horizon]; delta > 0 {
		alloc = shift(alloc, models.SafetyAssets, models.GrowthAssets, delta)
	} else if delta < 0 {
		alloc = shift(alloc, models.GrowthAssets, models.SafetyAssets, -delta)
	}

	if age > s.tables.SeniorAge {
		alloc = shift(alloc, models.GrowthAssets, models.SafetyAssets, s.tables.AgeShift)
	}
	if age < s.tables.YoungAge {
		alloc = shift(alloc, models.SafetyAssets, youngGrowth, s.tables.AgeShift)
	}

	return Normalize(alloc)
}

// shift moves amount points out of from, proportionally to each member's
// share and floored at zero, and spreads it evenly across to.
func shift(a models.Allocation, from, to []models.AssetClass, amount float64) models.Allocation {
	out := a.Clone()
	fromTotal := out.Sum(from...)
	if fromTotal <= 0 || amount <= 0 || len(to) == 0 {
		return out
	}

	for _, key := range from {
		reduction := out[key] / fromTotal * amount
		out[key] = math.Max(0, out[key]-reduction)
	}

	perKey := amount / float64(len(to))
	for _, key := range to {
		out[key] += perKey
	}
	return out
}
