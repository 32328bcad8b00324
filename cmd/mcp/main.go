// Command diverss-mcp exposes the allocation scorer and holdings analysis as
// MCP tools over stdio.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"

	"github.com/tenlabs01/Diverss/internal/allocation"
	"github.com/tenlabs01/Diverss/internal/app"
	"github.com/tenlabs01/Diverss/internal/config"
	"github.com/tenlabs01/Diverss/internal/logging"
)

const version = "1.0.0"

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// stdout carries the protocol
	logger, err := logging.NewWithWriter(cfg.Logging, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logger: %v\n", err)
		os.Exit(1)
	}

	stack, err := app.NewStack(cfg, logger, nil)
	if err != nil {
		logger.Error("failed to build analysis stack", "error", err)
		os.Exit(1)
	}

	var runner Runner
	if stack.Orchestrator != nil {
		runner = stack.Orchestrator
	}

	mcpServer := newMCPServer(allocation.NewScorer(allocation.DefaultTables()), runner, logger)
	if err := server.ServeStdio(mcpServer); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("MCP server failed", "error", err)
		os.Exit(1)
	}
}

func newMCPServer(scorer *allocation.Scorer, runner Runner, logger *slog.Logger) *server.MCPServer {
	mcpServer := server.NewMCPServer(
		"diverss",
		version,
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(createScoreAllocationTool(), handleScoreAllocation(scorer))
	mcpServer.AddTool(createSuggestAllocationTool(), handleSuggestAllocation(scorer))
	mcpServer.AddTool(createAnalyzeHoldingsTool(), handleAnalyzeHoldings(runner, logger))
	return mcpServer
}
