package allocation

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenlabs01/Diverss/internal/models"
)

func newTestScorer() *Scorer {
	return NewScorer(DefaultTables())
}

func TestScoreBalancedTwoBucket(t *testing.T) {
	result := newTestScorer().Score(models.Profile{
		Name:         " Asha ",
		Age:          40,
		RiskAppetite: models.RiskModerate,
		Horizon:      models.HorizonSevenToFifteen,
	}, models.Allocation{models.AssetStocks: 50000, models.AssetBonds: 50000})

	assert.Equal(t, "Asha", result.Name)
	assert.Equal(t, 50.0, result.Allocation[models.AssetStocks])
	assert.Equal(t, 50.0, result.Allocation[models.AssetBonds])
	assert.Equal(t, 50.0, result.EquityExposure)
	assert.Equal(t, 50.0, result.DefensiveExposure)

	// equityDiff 0, ageDiff 20 against ageEquity 70
	assert.Equal(t, 88, result.RiskScore)
	assert.Equal(t, 33, result.DiversificationScore)

	assert.Contains(t, result.Summary.Strengths, "Equity exposure is aligned with your risk appetite.")
	assert.Contains(t, result.Summary.Weaknesses, "Allocation is concentrated in too few asset classes.")
	assert.Contains(t, result.Summary.Weaknesses, "Cash buffer is below 5%.")
	assert.Equal(t, []string{
		"Reduce Stocks by 20%.",
		"Increase Mutual Funds by 20%.",
		"Increase Gold by 8%.",
		"Reduce Bonds by 25%.",
		"Increase Cash by 12%.",
		"Increase Real Estate by 5%.",
	}, result.Summary.Adjustments)
}

func TestScoreSingleBucket(t *testing.T) {
	result := newTestScorer().Score(models.Profile{
		Age:          40,
		RiskAppetite: models.RiskModerate,
		Horizon:      models.HorizonSevenToFifteen,
	}, models.Allocation{models.AssetStocks: 100000})

	assert.Equal(t, 100.0, result.Allocation[models.AssetStocks])
	// round(100/6) = 17, minus the full 40 concentration penalty, floored at 0
	assert.Equal(t, 0, result.DiversificationScore)
	// 100 - 50*1.3 - 30*0.6 - 8 - 5
	assert.Equal(t, 4, result.RiskScore)
	assert.Contains(t, result.Summary.Weaknesses, "Overexposure to Stocks (100%).")
	assert.Contains(t, result.Summary.Weaknesses, "Equity exposure is higher than a moderate profile.")
}

func TestScoreDefaults(t *testing.T) {
	result := newTestScorer().Score(models.Profile{Age: math.NaN()}, models.Allocation{models.AssetCash: 10})

	assert.Equal(t, float64(models.DefaultAge), result.Age)
	assert.Equal(t, models.RiskModerate, result.RiskAppetite)
	assert.Equal(t, models.HorizonSevenToFifteen, result.Horizon)
	assert.Contains(t, result.Summary.Weaknesses, "Equity exposure is lower than a moderate profile.")
}

func TestScoreAgeClamped(t *testing.T) {
	s := newTestScorer()
	assert.Equal(t, 18.0, s.Score(models.Profile{Age: 3}, nil).Age)
	assert.Equal(t, 100.0, s.Score(models.Profile{Age: 140}, nil).Age)
}

func TestScoreSeniorEquityWarning(t *testing.T) {
	result := newTestScorer().Score(models.Profile{
		Age:          70,
		RiskAppetite: models.RiskAggressive,
	}, models.Allocation{models.AssetStocks: 40, models.AssetMutualFunds: 30, models.AssetCash: 30})

	assert.Contains(t, result.Summary.Weaknesses, "Equity exposure may be elevated relative to your age band.")
}

func TestScoreZeroAllocationIsSafe(t *testing.T) {
	result := newTestScorer().Score(models.Profile{Age: 35}, models.Allocation{})

	assert.True(t, result.RiskScore >= 0 && result.RiskScore <= 100)
	assert.Equal(t, 0, result.DiversificationScore)
	assert.True(t, IsNormalized(result.SuggestedAllocation))
}

func TestScoreBounds(t *testing.T) {
	s := newTestScorer()
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 1000; i++ {
		in := models.NewAllocation()
		for _, key := range models.AssetClasses {
			in[key] = math.Floor(rng.Float64() * 100000)
		}
		profile := models.Profile{
			Age:          float64(18 + rng.Intn(83)),
			RiskAppetite: models.RiskAppetites[rng.Intn(len(models.RiskAppetites))],
			Horizon:      models.Horizons[rng.Intn(len(models.Horizons))],
		}
		result := s.Score(profile, in)
		require.GreaterOrEqual(t, result.RiskScore, 0)
		require.LessOrEqual(t, result.RiskScore, 100)
		require.GreaterOrEqual(t, result.DiversificationScore, 0)
		require.LessOrEqual(t, result.DiversificationScore, 100)
	}
}

func TestSuggestSumsToHundred(t *testing.T) {
	s := newTestScorer()
	for _, risk := range models.RiskAppetites {
		for _, horizon := range models.Horizons {
			for _, age := range []float64{20, 40, 60, 80} {
				suggested := s.Suggest(risk, horizon, age)
				assert.True(t, IsNormalized(suggested), "%s/%s/%v gave %v", risk, horizon, age, suggested)
			}
		}
	}
}

func TestSuggestBaseModelUnshifted(t *testing.T) {
	s := newTestScorer()
	assert.Equal(t, DefaultTables().BaseModels[models.RiskModerate], s.Suggest(models.RiskModerate, models.HorizonSevenToFifteen, 40))
}

func TestSuggestYoungLongHorizon(t *testing.T) {
	got := newTestScorer().Suggest(models.RiskModerate, models.HorizonFifteenPlus, 20)
	assert.Equal(t, models.Allocation{
		models.AssetStocks:      34,
		models.AssetMutualFunds: 24,
		models.AssetGold:        8,
		models.AssetBonds:       18,
		models.AssetCash:        9,
		models.AssetRealEstate:  7,
	}, got)
}

func TestSuggestUnknownAppetiteUsesDefaultModel(t *testing.T) {
	s := newTestScorer()
	assert.Equal(t,
		s.Suggest(models.RiskModerate, models.HorizonThreeToSeven, 45),
		s.Suggest(models.RiskAppetite("Bold"), models.HorizonThreeToSeven, 45))
}

func TestShiftSkipsEmptySource(t *testing.T) {
	in := models.Allocation{models.AssetStocks: 100}
	out := shift(in, models.SafetyAssets, models.GrowthAssets, 5)
	assert.Equal(t, in, out)
}
