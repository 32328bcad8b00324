package allocation

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenlabs01/Diverss/internal/models"
)

func TestNormalizeZeroInput(t *testing.T) {
	tests := []struct {
		name string
		in   models.Allocation
	}{
		{"nil", nil},
		{"empty", models.Allocation{}},
		{"all zero", models.NewAllocation()},
		{"negative only", models.Allocation{models.AssetStocks: -40, models.AssetCash: -10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Normalize(tt.in)
			require.Len(t, out, len(models.AssetClasses))
			for _, key := range models.AssetClasses {
				assert.Zero(t, out[key], key)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []models.Allocation{
		{models.AssetStocks: 30, models.AssetMutualFunds: 20, models.AssetGold: 8, models.AssetBonds: 25, models.AssetCash: 12, models.AssetRealEstate: 5},
		{models.AssetStocks: 100},
		{models.AssetGold: 50, models.AssetCash: 50},
	}
	for _, in := range inputs {
		once := Normalize(in)
		require.True(t, IsNormalized(once))
		assert.Equal(t, once, Normalize(once))
	}
}

func TestNormalizeTotalInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		in := models.NewAllocation()
		for _, key := range models.AssetClasses {
			if rng.Intn(3) == 0 {
				continue
			}
			in[key] = rng.Float64() * 150
		}
		if in.Total() == 0 {
			in[models.AssetGold] = 1
		}
		out := Normalize(in)
		assert.True(t, IsNormalized(out), "input %v produced %v", in, out)
	}
}

func TestNormalizeDriftGoesToFirstLargest(t *testing.T) {
	out := Normalize(models.Allocation{models.AssetStocks: 1, models.AssetBonds: 1, models.AssetCash: 1})
	assert.Equal(t, 34.0, out[models.AssetStocks])
	assert.Equal(t, 33.0, out[models.AssetBonds])
	assert.Equal(t, 33.0, out[models.AssetCash])
}

func TestNormalizeClampsAndSanitizes(t *testing.T) {
	out := Normalize(models.Allocation{
		models.AssetStocks: 50000,
		models.AssetBonds:  50000,
		models.AssetGold:   math.NaN(),
		models.AssetCash:   -20,
	})
	assert.Equal(t, 50.0, out[models.AssetStocks])
	assert.Equal(t, 50.0, out[models.AssetBonds])
	assert.Zero(t, out[models.AssetGold])
	assert.Zero(t, out[models.AssetCash])
}

func TestRoundHalfUp(t *testing.T) {
	assert.Equal(t, 3.0, roundHalfUp(2.5))
	assert.Equal(t, -2.0, roundHalfUp(-2.5))
	assert.Equal(t, 33.0, roundHalfUp(33.333))
}
