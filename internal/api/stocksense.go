package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/tenlabs01/Diverss/internal/leads"
	"github.com/tenlabs01/Diverss/internal/models"
	"github.com/tenlabs01/Diverss/internal/orchestrator"
	"github.com/tenlabs01/Diverss/internal/portfolio"
	"github.com/tenlabs01/Diverss/internal/stocksense"
)

type stockSenseRequest struct {
	PortfolioDescription string         `json:"portfolioDescription"`
	BatchIndex           *int           `json:"batchIndex"`
	UserDetails          *leads.Details `json:"userDetails"`
}

type stockSenseResponse struct {
	Result *models.BatchResult `json:"result"`
}

// handleStockSense analyzes one pre-described batch. Clients that batch on
// their own send the same userDetails with every batch; the lead is captured
// only for the first.
func (h *Handler) handleStockSense(w http.ResponseWriter, r *http.Request) {
	var req stockSenseRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err, msgStockSenseFailed)
		return
	}

	description := strings.TrimSpace(req.PortfolioDescription)
	if description == "" {
		h.fail(w, r, ValidationError{Field: "portfolioDescription", Message: msgMissingDescription}, msgStockSenseFailed)
		return
	}

	details, err := normalizeDetails(req.UserDetails)
	if err != nil {
		h.fail(w, r, err, msgStockSenseFailed)
		return
	}

	if h.analyzer == nil {
		h.fail(w, r, ErrMisconfigured, msgStockSenseFailed)
		return
	}

	batchIndex := 0
	if req.BatchIndex != nil {
		batchIndex = *req.BatchIndex
	}
	if batchIndex == 0 {
		h.captureLead(r, details, description)
	}

	loggerFrom(r.Context(), h.logger).Info("stocksense batch requested",
		"batch_index", batchIndex,
		"description_chars", len(description))

	result, err := h.analyzer.Analyze(r.Context(), description)
	if err != nil {
		h.fail(w, r, err, msgStockSenseFailed)
		return
	}
	result.Summary = orchestrator.Merge(result.Stocks)

	writeJSON(w, http.StatusOK, stockSenseResponse{Result: result})
}

type holdingInput struct {
	Symbol   string     `json:"symbol"`
	Quantity FlexNumber `json:"quantity"`
	AvgPrice FlexNumber `json:"avgPrice"`
	LTP      FlexNumber `json:"ltp"`
}

type portfolioRequest struct {
	CSV         string         `json:"csv"`
	Holdings    []holdingInput `json:"holdings"`
	UserDetails *leads.Details `json:"userDetails"`
}

type runResponse struct {
	Result *models.RunResult `json:"result"`
	Error  string            `json:"error,omitempty"`
}

// lineItems reads holdings from the CSV text, or from the structured list
// when no CSV is given.
func lineItems(csvText string, holdings []holdingInput) ([]models.LineItem, error) {
	if strings.TrimSpace(csvText) != "" {
		items, err := portfolio.ParseCSV(strings.NewReader(csvText))
		if err != nil {
			var rowErr *portfolio.RowError
			if errors.As(err, &rowErr) {
				return nil, ValidationError{Field: "csv", Message: rowErr.Error()}
			}
			return nil, ValidationError{Field: "csv", Message: msgCouldNotParse}
		}
		return items, nil
	}

	items := make([]models.LineItem, 0, len(holdings))
	for _, holding := range holdings {
		symbol := strings.ToUpper(strings.TrimSpace(holding.Symbol))
		if symbol == "" {
			continue
		}
		if !holding.Quantity.Valid || holding.Quantity.Value < 0 || !holding.AvgPrice.Valid || holding.AvgPrice.Value < 0 {
			return nil, ValidationError{Field: "holdings", Message: "Invalid quantity or average price for holding " + symbol + "."}
		}
		item := models.LineItem{Symbol: symbol, Quantity: holding.Quantity.Value, AvgPrice: holding.AvgPrice.Value}
		if holding.LTP.Valid && holding.LTP.Value >= 0 {
			ltp := holding.LTP.Value
			item.LTP = &ltp
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		return nil, ValidationError{Field: "holdings", Message: msgCouldNotParse}
	}
	return items, nil
}

// handlePortfolio runs a whole portfolio through the parallel orchestrator.
// Partial results are returned with 200 and an error annotation; the
// upstream status is surfaced only when no batch succeeded.
func (h *Handler) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	var req portfolioRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err, msgStockSenseFailed)
		return
	}

	items, err := lineItems(req.CSV, req.Holdings)
	if err != nil {
		h.fail(w, r, err, msgStockSenseFailed)
		return
	}

	details, err := normalizeDetails(req.UserDetails)
	if err != nil {
		h.fail(w, r, err, msgStockSenseFailed)
		return
	}

	if h.runner == nil {
		h.fail(w, r, ErrMisconfigured, msgStockSenseFailed)
		return
	}

	h.captureLead(r, details, portfolio.Describe(items))

	// A run spans many rate-limited upstream calls and can outlast the
	// server's WriteTimeout. The request context still bounds it.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		loggerFrom(r.Context(), h.logger).Debug("write deadline not cleared", "error", err)
	}

	result, err := h.runner.RunParallel(r.Context(), items)
	if result == nil {
		h.fail(w, r, err, msgStockSenseFailed)
		return
	}

	if err != nil && len(result.Stocks) == 0 {
		if ctxErr := r.Context().Err(); ctxErr != nil {
			h.fail(w, r, ctxErr, msgStockSenseFailed)
			return
		}
		status := http.StatusBadGateway
		if upstream, ok := stocksense.AsUpstream(err); ok {
			status = upstream.Status
		}
		loggerFrom(r.Context(), h.logger).Error("portfolio analysis produced no results", "run_id", result.RunID, "error", err)
		writeJSON(w, status, runResponse{Result: result, Error: result.Error})
		return
	}

	writeJSON(w, http.StatusOK, runResponse{Result: result, Error: result.Error})
}
