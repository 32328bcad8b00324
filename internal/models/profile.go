package models

// RiskAppetite is the investor's self-declared risk tolerance.
type RiskAppetite string

const (
	RiskConservative RiskAppetite = "Conservative"
	RiskModerate     RiskAppetite = "Moderate"
	RiskAggressive   RiskAppetite = "Aggressive"
)

// Horizon is the investment time band.
type Horizon string

const (
	HorizonUnderThree     Horizon = "< 3 years"
	HorizonThreeToSeven   Horizon = "3-7 years"
	HorizonSevenToFifteen Horizon = "7-15 years"
	HorizonFifteenPlus    Horizon = "15+ years"
)

// Horizons lists every supported band, shortest first.
var Horizons = []Horizon{HorizonUnderThree, HorizonThreeToSeven, HorizonSevenToFifteen, HorizonFifteenPlus}

// RiskAppetites lists every supported appetite, most cautious first.
var RiskAppetites = []RiskAppetite{RiskConservative, RiskModerate, RiskAggressive}

const (
	MinAge     = 18
	MaxAge     = 100
	DefaultAge = 30
)

// Profile carries the questionnaire answers that feed the scorer.
// Name and MaritalStatus are echoed back but do not affect scoring.
type Profile struct {
	Name          string       `json:"name"`
	Age           float64      `json:"age"`
	MaritalStatus string       `json:"maritalStatus"`
	RiskAppetite  RiskAppetite `json:"riskAppetite"`
	Horizon       Horizon      `json:"horizon"`
}

// ScoreSummary is the narrative produced alongside the numeric scores.
type ScoreSummary struct {
	Strengths   []string `json:"strengths"`
	Weaknesses  []string `json:"weaknesses"`
	Adjustments []string `json:"adjustments"`
}

// ScoreResult is the full output of one allocation analysis.
type ScoreResult struct {
	Name                 string       `json:"name"`
	MaritalStatus        string       `json:"maritalStatus"`
	RiskAppetite         RiskAppetite `json:"riskAppetite"`
	Horizon              Horizon      `json:"horizon"`
	Age                  float64      `json:"age"`
	Allocation           Allocation   `json:"allocation"`
	EquityExposure       float64      `json:"equityExposure"`
	DefensiveExposure    float64      `json:"defensiveExposure"`
	RiskScore            int          `json:"riskScore"`
	DiversificationScore int          `json:"diversificationScore"`
	SuggestedAllocation  Allocation   `json:"suggestedAllocation"`
	Summary              ScoreSummary `json:"summary"`
}
