// Package allocation normalizes asset allocations and scores them against an
// investor profile. Everything here is pure and deterministic.
package allocation

import (
	"math"

	"github.com/tenlabs01/Diverss/internal/models"
)

// Normalize scales raw weights to integer percentages summing to exactly 100.
//
// Each input is clamped to [0, 100] (missing or NaN counts as 0) before
// scaling. Rounding drift is added to the first key holding the largest
// rounded value. A non-positive total yields the all-zero vector.
func Normalize(raw models.Allocation) models.Allocation {
	out := models.NewAllocation()
	if len(raw) == 0 {
		return out
	}

	sanitized := models.NewAllocation()
	var total float64
	for _, key := range models.AssetClasses {
		v := clamp(raw[key], 0, 100, 0)
		sanitized[key] = v
		total += v
	}
	if total <= 0 {
		return out
	}

	factor := 100 / total
	var roundedTotal float64
	for _, key := range models.AssetClasses {
		out[key] = roundHalfUp(sanitized[key] * factor)
		roundedTotal += out[key]
	}

	if diff := 100 - roundedTotal; diff != 0 {
		largest, value := out.Max()
		out[largest] = clamp(value+diff, 0, 100, value)
	}

	return out
}

// IsNormalized reports whether a holds non-negative integers summing to 100.
func IsNormalized(a models.Allocation) bool {
	var total float64
	for _, key := range models.AssetClasses {
		v := a[key]
		if v < 0 || v != math.Trunc(v) {
			return false
		}
		total += v
	}
	return total == 100
}

func clamp(v, lo, hi, fallback float64) float64 {
	if math.IsNaN(v) {
		return fallback
	}
	return math.Min(hi, math.Max(lo, v))
}

// roundHalfUp rounds .5 toward positive infinity, matching how the
// questionnaire front end rounds.
func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}
