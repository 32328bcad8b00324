// Package stocksense sends portfolio descriptions to an LLM and turns the
// streamed reply into validated per-stock verdicts.
package stocksense

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/tenlabs01/Diverss/internal/models"
)

// Analyzer runs one upstream call per batch description.
type Analyzer struct {
	completer Completer
	rubric    Rubric
	validate  *validator.Validate
	logger    *slog.Logger
}

// NewAnalyzer wires a completer to a rubric.
func NewAnalyzer(completer Completer, rubric Rubric, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		completer: completer,
		rubric:    rubric,
		validate:  validator.New(),
		logger:    logger,
	}
}

// Analyze sends description upstream and decodes the model's JSON. Entries
// in "stocks" that fail validation are dropped and counted in Skipped. The
// returned Summary is left zero; callers fold it from Stocks.
func (a *Analyzer) Analyze(ctx context.Context, description string) (*models.BatchResult, error) {
	start := time.Now()
	text, err := a.completer.Complete(ctx, a.rubric.SystemPrompt(), a.rubric.UserPrompt(description))
	if err != nil {
		return nil, err
	}

	raw, ok := ExtractJSONObject(text)
	if !ok {
		a.logger.Warn("model response had no JSON object", "chars", len(text))
		return nil, NewUpstreamError(http.StatusBadGateway, MsgNoJSON)
	}

	result, err := a.decode(raw)
	if err != nil {
		return nil, err
	}

	a.logger.Debug("batch analyzed",
		"stocks", len(result.Stocks),
		"skipped", result.Skipped,
		"duration_ms", time.Since(start).Milliseconds())
	return result, nil
}

func (a *Analyzer) decode(raw json.RawMessage) (*models.BatchResult, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, NewUpstreamError(http.StatusBadGateway, MsgNoJSON)
	}

	stocksRaw, ok := envelope["stocks"]
	if !ok || !bytes.HasPrefix(bytes.TrimSpace(stocksRaw), []byte("[")) {
		return nil, NewUpstreamError(http.StatusBadGateway, MsgBadShape)
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(stocksRaw, &entries); err != nil {
		return nil, NewUpstreamError(http.StatusBadGateway, MsgBadShape)
	}

	result := &models.BatchResult{
		Stocks:       make([]models.StockVerdict, 0, len(entries)),
		ModelSummary: envelope["summary"],
	}
	for i, entry := range entries {
		verdict, err := a.verdict(entry)
		if err != nil {
			a.logger.Debug("dropping stock entry", "index", i, "error", err)
			result.Skipped++
			continue
		}
		result.Stocks = append(result.Stocks, verdict)
	}
	return result, nil
}

func (a *Analyzer) verdict(entry json.RawMessage) (models.StockVerdict, error) {
	var v models.StockVerdict
	if err := json.Unmarshal(entry, &v); err != nil {
		return v, fmt.Errorf("decoding stock entry: %w", err)
	}
	if err := a.validate.Struct(v); err != nil {
		return v, fmt.Errorf("validating %q: %w", v.Symbol, err)
	}
	return v, nil
}
