package models

import (
	"encoding/json"
	"math"
	"strconv"
)

// LineItem is one holding parsed from the user's CSV.
type LineItem struct {
	Symbol   string   `json:"symbol"`
	Quantity float64  `json:"quantity"`
	AvgPrice float64  `json:"avgPrice"`
	LTP      *float64 `json:"ltp,omitempty"` // nil when the CSV has no last traded price
}

// Describe renders the holding the way the upstream prompt expects it.
func (l LineItem) Describe() string {
	ltp := "unknown"
	if l.LTP != nil {
		ltp = "₹" + formatNumber(*l.LTP)
	}
	return l.Symbol + ": Qty=" + formatNumber(l.Quantity) + ", AvgPrice=₹" + formatNumber(l.AvgPrice) + ", LTP=" + ltp
}

func formatNumber(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "unknown"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Batch is a bounded, ordered slice of line items sent as one upstream request.
type Batch struct {
	Index int        `json:"index"` // zero-based submission order
	Items []LineItem `json:"items"`
}

// Verdict is the model's categorical recommendation for one stock.
type Verdict string

const (
	VerdictStrongHoldAdd   Verdict = "Strong Hold/Add"
	VerdictHold            Verdict = "Hold"
	VerdictHoldWithCaution Verdict = "Hold with Caution"
	VerdictReduce          Verdict = "Reduce"
	VerdictExit            Verdict = "Exit"
	VerdictSpeculative     Verdict = "Speculative"
)

// Verdicts lists the categories the rubric asks the model to use.
var Verdicts = []Verdict{
	VerdictStrongHoldAdd,
	VerdictHold,
	VerdictHoldWithCaution,
	VerdictReduce,
	VerdictExit,
	VerdictSpeculative,
}

// HopeLevel is the model's qualitative recovery outlook.
type HopeLevel string

const (
	HopeVeryHigh    HopeLevel = "Very High"
	HopeHigh        HopeLevel = "High"
	HopeModerate    HopeLevel = "Moderate"
	HopeLow         HopeLevel = "Low"
	HopeSpeculative HopeLevel = "Speculative"
	HopeVeryLow     HopeLevel = "Very Low"
)

// HopeLevels lists the outlook labels the rubric allows.
var HopeLevels = []HopeLevel{HopeVeryHigh, HopeHigh, HopeModerate, HopeLow, HopeSpeculative, HopeVeryLow}

// FactorScores holds the eight 1-5 sub-scores of the rubric.
type FactorScores struct {
	RoceToPe             float64 `json:"roceToPe" validate:"gte=0,lte=5"`
	MarketCap            float64 `json:"marketCap" validate:"gte=0,lte=5"`
	PriceToBook          float64 `json:"priceToBook" validate:"gte=0,lte=5"`
	RevenueGrowth        float64 `json:"revenueGrowth" validate:"gte=0,lte=5"`
	InstitutionalHolding float64 `json:"institutionalHolding" validate:"gte=0,lte=5"`
	Liquidity            float64 `json:"liquidity" validate:"gte=0,lte=5"`
	RSI                  float64 `json:"rsi" validate:"gte=0,lte=5"`
	EventSensitivity     float64 `json:"eventSensitivity" validate:"gte=0,lte=5"`
}

// StockVerdict is one per-stock entry of the model's response. It is an
// untrusted value and must pass validation before it is merged.
type StockVerdict struct {
	Symbol        string       `json:"symbol" validate:"required"`
	CompanyName   string       `json:"companyName"`
	Quantity      float64      `json:"quantity" validate:"gte=0"`
	AvgPrice      float64      `json:"avgPrice" validate:"gte=0"`
	LTP           float64      `json:"ltp" validate:"gte=0"`
	PnL           float64      `json:"pnl"`
	PnLPercent    float64      `json:"pnlPercent"`
	Verdict       Verdict      `json:"verdict" validate:"required"`
	Scores        FactorScores `json:"scores"`
	WeightedScore float64      `json:"weightedScore" validate:"gte=0,lte=5"`
	HopeLevel     HopeLevel    `json:"hopeLevel"`
	HopeFactor    string       `json:"hopeFactor"`
	Reasoning     string       `json:"reasoning"`
	LatestNews    string       `json:"latestNews"`
}

// AggregateSummary is a pure fold over a list of verdicts. Monetary values
// are rounded to two decimals; PortfolioScore is nil when there are no stocks.
type AggregateSummary struct {
	TotalInvested  float64         `json:"totalInvested"`
	CurrentValue   float64         `json:"currentValue"`
	TotalPnL       float64         `json:"totalPnL"`
	PortfolioScore *float64        `json:"portfolioScore"`
	StockCount     int             `json:"stockCount"`
	VerdictCounts  map[Verdict]int `json:"verdictCounts"`
}

// BatchResult is the validated outcome of one upstream call.
type BatchResult struct {
	Stocks       []StockVerdict   `json:"stocks"`
	Summary      AggregateSummary `json:"summary"`
	ModelSummary json.RawMessage  `json:"modelSummary,omitempty"` // the model's own summary block, unverified
	Skipped      int              `json:"skipped,omitempty"`      // entries dropped by validation
}
