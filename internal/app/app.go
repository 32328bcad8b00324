// Package app assembles the analysis stack from configuration. The server,
// MCP and CLI binaries share it.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/tenlabs01/Diverss/internal/config"
	"github.com/tenlabs01/Diverss/internal/database"
	"github.com/tenlabs01/Diverss/internal/leads"
	"github.com/tenlabs01/Diverss/internal/orchestrator"
	"github.com/tenlabs01/Diverss/internal/stocksense"
)

// Recorder is the metrics surface the stack reports to.
type Recorder interface {
	stocksense.CallRecorder
	orchestrator.Recorder
}

// ProviderConfig maps the LLM section onto the upstream client settings.
func ProviderConfig(cfg config.LLMConfig) stocksense.ProviderConfig {
	return stocksense.ProviderConfig{
		Provider: cfg.Provider,
		Anthropic: stocksense.AnthropicConfig{
			APIKey:      cfg.AnthropicAPIKey,
			Model:       cfg.AnthropicModel,
			BaseURL:     cfg.AnthropicBaseURL,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
		},
		OpenAI: stocksense.OpenAIConfig{
			APIKey:      cfg.OpenAIAPIKey,
			Model:       cfg.OpenAIModel,
			BaseURL:     cfg.OpenAIBaseURL,
			MaxTokens:   cfg.MaxTokens,
			Temperature: float32(cfg.Temperature),
		},
	}
}

// NewAnalyzer builds the upstream completer chain and the stock analyzer.
// It returns stocksense.ErrNoAPIKey when the selected provider has no key.
// recorder may be nil.
func NewAnalyzer(cfg config.LLMConfig, logger *slog.Logger, recorder Recorder) (*stocksense.Analyzer, error) {
	httpClient := &http.Client{Timeout: cfg.Timeout}
	completer, err := stocksense.NewCompleter(ProviderConfig(cfg), httpClient, logger)
	if err != nil {
		return nil, err
	}
	if recorder != nil {
		completer = stocksense.Instrument(completer, cfg.Provider, recorder)
	}
	completer = stocksense.NewRateLimitedCompleter(completer, cfg.RequestsPerMinute)
	return stocksense.NewAnalyzer(completer, stocksense.DefaultRubric(), logger), nil
}

// NewOrchestrator wraps analyzer with the configured batch settings.
func NewOrchestrator(analyzer orchestrator.BatchAnalyzer, cfg config.BatchConfig, logger *slog.Logger, recorder Recorder) *orchestrator.Orchestrator {
	opts := orchestrator.Options{
		MaxParallel: cfg.MaxParallel,
		Logger:      logger,
	}
	if recorder != nil {
		opts.Recorder = recorder
	}
	return orchestrator.New(analyzer, opts)
}

// Stack is the analysis pipeline. Analyzer and Orchestrator are nil when
// no upstream key is configured.
type Stack struct {
	Analyzer     *stocksense.Analyzer
	Orchestrator *orchestrator.Orchestrator
}

// NewStack builds the pipeline, logging instead of failing when the API key
// is missing so the allocation scorer can still be served.
func NewStack(cfg config.Config, logger *slog.Logger, recorder Recorder) (Stack, error) {
	analyzer, err := NewAnalyzer(cfg.LLM, logger, recorder)
	switch {
	case errors.Is(err, stocksense.ErrNoAPIKey):
		logger.Warn("upstream api key not set, stock analysis disabled", "provider", cfg.LLM.Provider)
		return Stack{}, nil
	case err != nil:
		return Stack{}, fmt.Errorf("failed to build analyzer: %w", err)
	}
	return Stack{
		Analyzer:     analyzer,
		Orchestrator: NewOrchestrator(analyzer, cfg.Batch, logger, recorder),
	}, nil
}

// LeadSink builds the configured lead sinks. It returns a nil Sink when none
// are configured, and a non-nil *sql.DB when the Postgres sink is enabled;
// the caller closes it.
func LeadSink(ctx context.Context, cfg config.Config, logger *slog.Logger) (leads.Sink, *sql.DB, error) {
	var sinks leads.MultiSink

	if cfg.Leads.WebhookURL != "" {
		sinks = append(sinks, leads.NewWebhookSink(cfg.Leads.WebhookURL, cfg.Leads.WebhookTimeout, nil))
	}

	dsn, err := database.BuildURL(cfg.Database.URL, database.CloudSQL{
		Instance: cfg.Database.Instance,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Name:     cfg.Database.Name,
	})
	if err != nil {
		return nil, nil, err
	}

	var db *sql.DB
	if dsn != "" {
		dbCfg := database.DefaultConfig()
		dbCfg.URL = dsn

		logger.Info("connecting to database", "dsn", database.Redact(dsn))
		db, err = database.Connect(ctx, dbCfg)
		if err != nil {
			return nil, nil, err
		}
		if err := database.RunMigrations(ctx, db, database.Migrations(cfg.Database.MigrationsDir), logger); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		sinks = append(sinks, leads.NewPostgresSink(db))
		logger.Info("postgres lead sink enabled")
	}

	switch len(sinks) {
	case 0:
		return nil, db, nil
	case 1:
		return sinks[0], db, nil
	default:
		return sinks, db, nil
	}
}
