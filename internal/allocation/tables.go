package allocation

import "github.com/tenlabs01/Diverss/internal/models"

// Tables is the immutable reference data the scorer works from. It is
// injected at construction so tests can swap models without global state.
type Tables struct {
	// RiskTargets is the target equity percentage per appetite.
	RiskTargets       map[models.RiskAppetite]float64
	DefaultRiskTarget float64

	// BaseModels are the starting suggested allocations; each sums to 100.
	BaseModels   map[models.RiskAppetite]models.Allocation
	DefaultModel models.RiskAppetite

	// HorizonShifts moves points from safety to growth (positive) or the
	// reverse (negative).
	HorizonShifts map[models.Horizon]float64

	SeniorAge float64 // above this, shift growth into safety
	YoungAge  float64 // below this, shift safety into stocks and funds
	AgeShift  float64
}

// DefaultTables returns the production reference data.
func DefaultTables() Tables {
	return Tables{
		RiskTargets: map[models.RiskAppetite]float64{
			models.RiskConservative: 30,
			models.RiskModerate:     50,
			models.RiskAggressive:   70,
		},
		DefaultRiskTarget: 50,
		BaseModels: map[models.RiskAppetite]models.Allocation{
			models.RiskConservative: {
				models.AssetStocks:      20,
				models.AssetMutualFunds: 15,
				models.AssetGold:        10,
				models.AssetBonds:       35,
				models.AssetCash:        15,
				models.AssetRealEstate:  5,
			},
			models.RiskModerate: {
				models.AssetStocks:      30,
				models.AssetMutualFunds: 20,
				models.AssetGold:        8,
				models.AssetBonds:       25,
				models.AssetCash:        12,
				models.AssetRealEstate:  5,
			},
			models.RiskAggressive: {
				models.AssetStocks:      40,
				models.AssetMutualFunds: 25,
				models.AssetGold:        5,
				models.AssetBonds:       20,
				models.AssetCash:        5,
				models.AssetRealEstate:  5,
			},
		},
		DefaultModel: models.RiskModerate,
		HorizonShifts: map[models.Horizon]float64{
			models.HorizonUnderThree:     -10,
			models.HorizonThreeToSeven:   -5,
			models.HorizonSevenToFifteen: 0,
			models.HorizonFifteenPlus:    5,
		},
		SeniorAge: 55,
		YoungAge:  30,
		AgeShift:  5,
	}
}

func (t Tables) riskTarget(r models.RiskAppetite) float64 {
	if target, ok := t.RiskTargets[r]; ok {
		return target
	}
	return t.DefaultRiskTarget
}

func (t Tables) baseModel(r models.RiskAppetite) models.Allocation {
	if base, ok := t.BaseModels[r]; ok {
		return base.Clone()
	}
	return t.BaseModels[t.DefaultModel].Clone()
}
