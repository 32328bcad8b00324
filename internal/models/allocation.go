package models

// AssetClass identifies one bucket of an allocation vector.
type AssetClass string

const (
	AssetStocks      AssetClass = "stocks"
	AssetMutualFunds AssetClass = "mutualFunds"
	AssetGold        AssetClass = "gold"
	AssetBonds       AssetClass = "bonds"
	AssetCash        AssetClass = "cash"
	AssetRealEstate  AssetClass = "realEstate"
)

// AssetClasses is the closed key set in encounter order. Tie-breaks that
// depend on "first key" use this order.
var AssetClasses = []AssetClass{
	AssetStocks,
	AssetMutualFunds,
	AssetGold,
	AssetBonds,
	AssetCash,
	AssetRealEstate,
}

// GrowthAssets are the equity-like buckets.
var GrowthAssets = []AssetClass{AssetStocks, AssetMutualFunds, AssetRealEstate}

// SafetyAssets are the capital-preservation buckets.
var SafetyAssets = []AssetClass{AssetBonds, AssetCash}

var assetLabels = map[AssetClass]string{
	AssetStocks:      "Stocks",
	AssetMutualFunds: "Mutual Funds",
	AssetGold:        "Gold",
	AssetBonds:       "Bonds",
	AssetCash:        "Cash",
	AssetRealEstate:  "Real Estate",
}

// Label returns the display name used in narrative text.
func (a AssetClass) Label() string {
	if label, ok := assetLabels[a]; ok {
		return label
	}
	return string(a)
}

// IsValid reports whether a belongs to the closed key set.
func (a AssetClass) IsValid() bool {
	_, ok := assetLabels[a]
	return ok
}

// Allocation maps each asset class to a weight. After normalization the
// values are integer percentages summing to exactly 100.
type Allocation map[AssetClass]float64

// NewAllocation returns a vector with every key present and set to zero.
func NewAllocation() Allocation {
	a := make(Allocation, len(AssetClasses))
	for _, key := range AssetClasses {
		a[key] = 0
	}
	return a
}

// Clone returns an independent copy of a.
func (a Allocation) Clone() Allocation {
	out := make(Allocation, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Total sums every bucket.
func (a Allocation) Total() float64 {
	var total float64
	for _, key := range AssetClasses {
		total += a[key]
	}
	return total
}

// Sum adds the listed buckets.
func (a Allocation) Sum(keys ...AssetClass) float64 {
	var total float64
	for _, key := range keys {
		total += a[key]
	}
	return total
}

// Equity is stocks + mutual funds + real estate.
func (a Allocation) Equity() float64 {
	return a.Sum(GrowthAssets...)
}

// Defensive is bonds + cash.
func (a Allocation) Defensive() float64 {
	return a.Sum(SafetyAssets...)
}

// Max returns the largest bucket; ties go to the first key in AssetClasses.
func (a Allocation) Max() (AssetClass, float64) {
	best := AssetClasses[0]
	bestValue := a[best]
	for _, key := range AssetClasses[1:] {
		if a[key] > bestValue {
			best = key
			bestValue = a[key]
		}
	}
	return best, bestValue
}

// ActiveCount counts buckets holding more than threshold.
func (a Allocation) ActiveCount(threshold float64) int {
	count := 0
	for _, key := range AssetClasses {
		if a[key] > threshold {
			count++
		}
	}
	return count
}
