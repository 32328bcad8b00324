package stocksense

import (
	"fmt"
	"strings"

	"github.com/tenlabs01/Diverss/internal/models"
)

// Factor is one weighted criterion of the scoring rubric.
type Factor struct {
	Key      string // JSON key inside "scores"
	Name     string
	Weight   float64 // fraction of the weighted score; weights sum to 1
	Guidance string
}

// Rubric is the fixed instruction set given to the model as its system
// prompt. It is plain data so alternative rubrics can be injected.
type Rubric struct {
	Market     string
	Currency   string
	Factors    []Factor
	Verdicts   []models.Verdict
	HopeLevels []models.HopeLevel
}

// DefaultRubric returns the production rubric for Indian equities.
func DefaultRubric() Rubric {
	return Rubric{
		Market:   "Indian (NSE/BSE) listed equities",
		Currency: "₹",
		Factors: []Factor{
			{Key: "roceToPe", Name: "ROCE to P/E", Weight: 0.25, Guidance: "return on capital employed relative to valuation; higher ROCE per unit of P/E scores higher"},
			{Key: "marketCap", Name: "Market capitalisation", Weight: 0.10, Guidance: "large caps score higher than small and micro caps"},
			{Key: "priceToBook", Name: "Price to book", Weight: 0.10, Guidance: "lower P/B relative to sector peers scores higher"},
			{Key: "revenueGrowth", Name: "Revenue growth", Weight: 0.15, Guidance: "consistent multi-year top-line growth scores higher"},
			{Key: "institutionalHolding", Name: "Institutional holding", Weight: 0.10, Guidance: "stable or rising FII/DII ownership scores higher"},
			{Key: "liquidity", Name: "Liquidity", Weight: 0.10, Guidance: "high average daily traded value scores higher"},
			{Key: "rsi", Name: "RSI momentum", Weight: 0.15, Guidance: "RSI between 40 and 60 scores highest; deeply overbought or oversold scores lower"},
			{Key: "eventSensitivity", Name: "Event sensitivity", Weight: 0.05, Guidance: "low exposure to pending regulatory, legal or promoter events scores higher"},
		},
		Verdicts:   models.Verdicts,
		HopeLevels: models.HopeLevels,
	}
}

// SystemPrompt renders the rubric as model instructions.
func (r Rubric) SystemPrompt() string {
	var b strings.Builder

	b.WriteString("You are a disciplined equity analyst reviewing a retail investor's portfolio of ")
	b.WriteString(r.Market)
	b.WriteString(".\n\nScore every holding on each factor below from 1 (weak) to 5 (strong):\n")
	for _, f := range r.Factors {
		fmt.Fprintf(&b, "- %s (%s, weight %.0f%%): %s\n", f.Key, f.Name, f.Weight*100, f.Guidance)
	}
	b.WriteString("\nweightedScore is the weight-adjusted sum of the factor scores, between 0 and 5, rounded to two decimals.\n")

	b.WriteString("\nverdict must be exactly one of: ")
	b.WriteString(joinQuoted(verdictStrings(r.Verdicts)))
	b.WriteString(".\nhopeLevel must be exactly one of: ")
	b.WriteString(joinQuoted(hopeStrings(r.HopeLevels)))
	b.WriteString(".\n")

	fmt.Fprintf(&b, "\nAll prices are in %s. pnl is (ltp - avgPrice) * quantity and pnlPercent is relative to avgPrice. ", r.Currency)
	b.WriteString("When the ltp is unknown, use your best recent estimate and say so in reasoning.\n")

	b.WriteString(`
Respond with ONLY a JSON object, no markdown and no commentary, in exactly this shape:
{
  "summary": {"overview": "...", "topRisks": ["..."], "topOpportunities": ["..."]},
  "stocks": [
    {
      "symbol": "...",
      "companyName": "...",
      "quantity": 0,
      "avgPrice": 0,
      "ltp": 0,
      "pnl": 0,
      "pnlPercent": 0,
      "verdict": "...",
      "scores": {`)
	for i, f := range r.Factors {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%q: 0", f.Key)
	}
	b.WriteString(`},
      "weightedScore": 0,
      "hopeLevel": "...",
      "hopeFactor": "...",
      "reasoning": "...",
      "latestNews": "..."
    }
  ]
}
Include one entry in "stocks" for every holding you are given, in the same order.`)

	return b.String()
}

// UserPrompt wraps a portfolio description for one batch.
func (r Rubric) UserPrompt(description string) string {
	return "Analyze the following holdings. Each line is SYMBOL: Qty, AvgPrice, LTP.\n\n" + description
}

func joinQuoted(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return strings.Join(quoted, ", ")
}

func verdictStrings(vs []models.Verdict) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = string(v)
	}
	return out
}

func hopeStrings(hs []models.HopeLevel) []string {
	out := make([]string, len(hs))
	for i, h := range hs {
		out[i] = string(h)
	}
	return out
}
