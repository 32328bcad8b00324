package api

import (
	"net/http"

	"github.com/tenlabs01/Diverss/internal/models"
)

type analyzeRequest struct {
	Name          string                           `json:"name"`
	Age           FlexNumber                       `json:"age"`
	MaritalStatus string                           `json:"maritalStatus"`
	RiskAppetite  models.RiskAppetite              `json:"riskAppetite"`
	Horizon       models.Horizon                   `json:"horizon"`
	Allocation    map[models.AssetClass]FlexNumber `json:"allocation"`
}

// handleAnalyze scores a questionnaire submission. Unknown allocation keys
// are ignored; missing or unparsable amounts count as zero. A null or empty
// age counts as zero and clamps up to the minimum age; a missing or
// unparsable one takes the default.
func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err, msgPortfolioFailed)
		return
	}

	alloc := models.NewAllocation()
	for key, amount := range req.Allocation {
		if key.IsValid() {
			alloc[key] = amount.Coerced()
		}
	}

	result := h.scorer.Score(models.Profile{
		Name:          req.Name,
		Age:           req.Age.Coerced(),
		MaritalStatus: req.MaritalStatus,
		RiskAppetite:  req.RiskAppetite,
		Horizon:       req.Horizon,
	}, alloc)

	writeJSON(w, http.StatusOK, result)
}
