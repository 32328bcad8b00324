package main

import (
	"github.com/mark3labs/mcp-go/mcp"
)

func createScoreAllocationTool() mcp.Tool {
	return mcp.NewTool("score_allocation",
		mcp.WithDescription("Score an investor's asset allocation for risk and diversification against their profile. Returns exposures, scores, a suggested allocation and a short narrative."),
		mcp.WithObject("allocation",
			mcp.Required(),
			mcp.Description("Percentage weights per asset class (stocks, mutualFunds, gold, bonds, cash, realEstate). Each weight is capped to 0-100, then the set is rescaled to sum to 100."),
		),
		mcp.WithNumber("age",
			mcp.Description("Investor age, clamped to 18-100 (default: 30)"),
		),
		mcp.WithString("risk_appetite",
			mcp.Description("Conservative, Moderate or Aggressive (default: Moderate)"),
		),
		mcp.WithString("horizon",
			mcp.Description("Investment horizon: '< 3 years', '3-7 years', '7-15 years' or '15+ years'"),
		),
		mcp.WithString("name",
			mcp.Description("Investor name, echoed back"),
		),
	)
}

func createSuggestAllocationTool() mcp.Tool {
	return mcp.NewTool("suggest_allocation",
		mcp.WithDescription("Suggest a model allocation in percent for a risk appetite, horizon and age."),
		mcp.WithString("risk_appetite",
			mcp.Description("Conservative, Moderate or Aggressive (default: Moderate)"),
		),
		mcp.WithString("horizon",
			mcp.Description("Investment horizon: '< 3 years', '3-7 years', '7-15 years' or '15+ years'"),
		),
		mcp.WithNumber("age",
			mcp.Description("Investor age (default: 30)"),
		),
	)
}

func createAnalyzeHoldingsTool() mcp.Tool {
	return mcp.NewTool("analyze_holdings",
		mcp.WithDescription("Rate each stock holding (Strong Hold/Add, Hold, Hold with Caution, Reduce, Exit or Speculative) from a CSV of Symbol,Quantity,AvgPrice,LTP rows. Large portfolios are analyzed in batches; partial results are returned if a batch fails."),
		mcp.WithString("csv",
			mcp.Required(),
			mcp.Description("Holdings CSV. The header row is optional and common column aliases are accepted."),
		),
	)
}
