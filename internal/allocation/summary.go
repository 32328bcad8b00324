package allocation

import (
	"fmt"
	"math"
	"strings"

	"github.com/tenlabs01/Diverss/internal/models"
)

type summaryFacts struct {
	risk           models.RiskAppetite
	age            float64
	alloc          models.Allocation
	suggested      models.Allocation
	equity         float64
	defensive      float64
	equityDiff     float64
	equityVsTarget float64
	ageEquity      float64
	divScore       int
}

func buildSummary(f summaryFacts) models.ScoreSummary {
	summary := models.ScoreSummary{
		Strengths:   []string{},
		Weaknesses:  []string{},
		Adjustments: []string{},
	}

	if f.divScore >= 70 {
		summary.Strengths = append(summary.Strengths, "Diversified across multiple asset classes.")
	} else {
		summary.Weaknesses = append(summary.Weaknesses, "Allocation is concentrated in too few asset classes.")
	}

	profile := strings.ToLower(string(f.risk))
	switch {
	case f.equityDiff <= 8:
		summary.Strengths = append(summary.Strengths, "Equity exposure is aligned with your risk appetite.")
	case f.equityVsTarget > 0:
		summary.Weaknesses = append(summary.Weaknesses, fmt.Sprintf("Equity exposure is higher than a %s profile.", profile))
	default:
		summary.Weaknesses = append(summary.Weaknesses, fmt.Sprintf("Equity exposure is lower than a %s profile.", profile))
	}

	if f.defensive >= 15 && f.defensive <= 40 {
		summary.Strengths = append(summary.Strengths, "Defensive allocation provides a stable buffer.")
	}

	if key, value := f.alloc.Max(); value > 50 {
		summary.Weaknesses = append(summary.Weaknesses,
			fmt.Sprintf("Overexposure to %s (%d%%).", key.Label(), int(roundHalfUp(value))))
	}

	if f.age > 55 && f.equity > f.ageEquity+10 {
		summary.Weaknesses = append(summary.Weaknesses, "Equity exposure may be elevated relative to your age band.")
	}

	if f.alloc[models.AssetCash] < 5 {
		summary.Weaknesses = append(summary.Weaknesses, "Cash buffer is below 5%.")
	}

	for _, key := range models.AssetClasses {
		diff := int(roundHalfUp(f.suggested[key] - f.alloc[key]))
		if math.Abs(float64(diff)) < adjustmentThreshold {
			continue
		}
		verb := "Increase"
		if diff < 0 {
			verb = "Reduce"
			diff = -diff
		}
		summary.Adjustments = append(summary.Adjustments, fmt.Sprintf("%s %s by %d%%.", verb, key.Label(), diff))
	}

	if len(summary.Adjustments) == 0 {
		summary.Adjustments = append(summary.Adjustments, "Current allocation is close to the suggested model.")
	}

	return summary
}
