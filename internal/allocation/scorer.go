package allocation

import (
	"math"
	"strings"

	"github.com/tenlabs01/Diverss/internal/models"
)

// Scoring thresholds.
const (
	equityWeight         = 1.3
	ageWeight            = 0.6
	concentrationPenalty = 8  // single bucket above 50%
	thinBufferPenalty    = 5  // defensive below 10%
	activeThreshold      = 5  // a bucket counts as active above this
	heavyPenalty         = 15 // single bucket above 60%
	extremePenalty       = 25 // single bucket above 75%, on top of heavyPenalty
	adjustmentThreshold  = 5
)

// Scorer turns a profile and a raw allocation into a ScoreResult.
type Scorer struct {
	tables Tables
}

// NewScorer builds a scorer over the given reference data.
func NewScorer(tables Tables) *Scorer {
	return &Scorer{tables: tables}
}

// ResolveProfile applies the questionnaire defaults: age clamped to
// [18, 100] with 30 for missing or non-numeric input, Moderate appetite and
// the 7-15 year horizon when blank.
func ResolveProfile(p models.Profile) models.Profile {
	p.Age = clamp(p.Age, models.MinAge, models.MaxAge, models.DefaultAge)
	p.Name = strings.TrimSpace(p.Name)
	p.MaritalStatus = strings.TrimSpace(p.MaritalStatus)
	if strings.TrimSpace(string(p.RiskAppetite)) == "" {
		p.RiskAppetite = models.RiskModerate
	}
	if strings.TrimSpace(string(p.Horizon)) == "" {
		p.Horizon = models.HorizonSevenToFifteen
	}
	return p
}

// Score computes the heuristic risk and diversification scores.
func (s *Scorer) Score(profile models.Profile, raw models.Allocation) models.ScoreResult {
	p := ResolveProfile(profile)
	alloc := Normalize(raw)

	equity := alloc.Equity()
	defensive := alloc.Defensive()
	riskTarget := s.tables.riskTarget(p.RiskAppetite)
	equityDiff := math.Abs(equity - riskTarget)
	ageEquity := clamp(110-p.Age, 20, 80, 50)
	ageDiff := math.Abs(equity - ageEquity)
	_, maxValue := alloc.Max()

	risk := 100 - equityDiff*equityWeight - ageDiff*ageWeight
	if maxValue > 50 {
		risk -= concentrationPenalty
	}
	if defensive < 10 {
		risk -= thinBufferPenalty
	}
	riskScore := int(roundHalfUp(clamp(risk, 0, 100, 50)))

	active := alloc.ActiveCount(activeThreshold)
	div := roundHalfUp(float64(active) / float64(len(models.AssetClasses)) * 100)
	if maxValue > 60 {
		div -= heavyPenalty
	}
	if maxValue > 75 {
		div -= extremePenalty
	}
	divScore := int(roundHalfUp(clamp(div, 0, 100, 50)))

	suggested := s.Suggest(p.RiskAppetite, p.Horizon, p.Age)

	facts := summaryFacts{
		risk:           p.RiskAppetite,
		age:            p.Age,
		alloc:          alloc,
		suggested:      suggested,
		equity:         equity,
		defensive:      defensive,
		equityDiff:     equityDiff,
		equityVsTarget: equity - riskTarget,
		ageEquity:      ageEquity,
		divScore:       divScore,
	}

	return models.ScoreResult{
		Name:                 p.Name,
		MaritalStatus:        p.MaritalStatus,
		RiskAppetite:         p.RiskAppetite,
		Horizon:              p.Horizon,
		Age:                  p.Age,
		Allocation:           alloc,
		EquityExposure:       equity,
		DefensiveExposure:    defensive,
		RiskScore:            riskScore,
		DiversificationScore: divScore,
		SuggestedAllocation:  suggested,
		Summary:              buildSummary(facts),
	}
}
