package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/tenlabs01/Diverss/internal/allocation"
	"github.com/tenlabs01/Diverss/internal/models"
	"github.com/tenlabs01/Diverss/internal/portfolio"
)

// Runner executes a batched holdings analysis.
type Runner interface {
	RunParallel(ctx context.Context, items []models.LineItem) (*models.RunResult, error)
}

func handleScoreAllocation(scorer *allocation.Scorer) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, ok := request.GetArguments()["allocation"].(map[string]any)
		if !ok {
			return errorResult("Error: allocation parameter is required"), nil
		}

		alloc := models.NewAllocation()
		for key, value := range raw {
			class := models.AssetClass(key)
			if !class.IsValid() {
				continue
			}
			if amount, ok := value.(float64); ok {
				alloc[class] = amount
			}
		}

		result := scorer.Score(models.Profile{
			Name:         request.GetString("name", ""),
			Age:          request.GetFloat("age", math.NaN()),
			RiskAppetite: models.RiskAppetite(request.GetString("risk_appetite", "")),
			Horizon:      models.Horizon(request.GetString("horizon", "")),
		}, alloc)

		return jsonResult(result)
	}
}

func handleSuggestAllocation(scorer *allocation.Scorer) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		profile := allocation.ResolveProfile(models.Profile{
			Age:          request.GetFloat("age", math.NaN()),
			RiskAppetite: models.RiskAppetite(request.GetString("risk_appetite", "")),
			Horizon:      models.Horizon(request.GetString("horizon", "")),
		})
		return jsonResult(scorer.Suggest(profile.RiskAppetite, profile.Horizon, profile.Age))
	}
}

func handleAnalyzeHoldings(runner Runner, logger *slog.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if runner == nil {
			return errorResult("Error: upstream API key is not set"), nil
		}

		csvText, err := request.RequireString("csv")
		if err != nil || strings.TrimSpace(csvText) == "" {
			return errorResult("Error: csv parameter is required"), nil
		}

		items, err := portfolio.ParseCSV(strings.NewReader(csvText))
		if err != nil {
			var rowErr *portfolio.RowError
			if errors.As(err, &rowErr) || errors.Is(err, portfolio.ErrNoHoldings) {
				return errorResult(fmt.Sprintf("Error: %v", err)), nil
			}
			return errorResult("Error: could not parse holdings CSV"), nil
		}

		result, err := runner.RunParallel(ctx, items)
		if result == nil || len(result.Stocks) == 0 {
			logger.Error("holdings analysis failed", "error", err, "stocks", len(items))
			return errorResult(fmt.Sprintf("Analysis error: %v", err)), nil
		}
		if err != nil {
			logger.Warn("holdings analysis partial", "error", err, "completed", len(result.Stocks), "stocks", len(items))
		}
		return jsonResult(result)
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(message),
		},
		IsError: true,
	}
}
