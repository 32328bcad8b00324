package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/tenlabs01/Diverss/internal/allocation"
	"github.com/tenlabs01/Diverss/internal/api"
	"github.com/tenlabs01/Diverss/internal/app"
	"github.com/tenlabs01/Diverss/internal/config"
	"github.com/tenlabs01/Diverss/internal/database"
	"github.com/tenlabs01/Diverss/internal/leads"
	"github.com/tenlabs01/Diverss/internal/logging"
	"github.com/tenlabs01/Diverss/internal/metrics"
	"github.com/tenlabs01/Diverss/internal/server"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to init logger", "error", err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	logger.Info("starting diverss", "provider", cfg.LLM.Provider, "port", cfg.Server.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	collector, err := metrics.New()
	if err != nil {
		return fmt.Errorf("failed to init metrics: %w", err)
	}

	stack, err := app.NewStack(cfg, logger, collector)
	if err != nil {
		return err
	}

	sink, db, err := app.LeadSink(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}
	if sink == nil {
		logger.Info("lead capture disabled")
	}
	dispatcher := leads.NewDispatcher(sink, 2*cfg.Leads.WebhookTimeout, logger)
	defer dispatcher.Close()

	deps := api.Deps{
		Scorer:  allocation.NewScorer(allocation.DefaultTables()),
		Leads:   dispatcher,
		Metrics: collector,
		Logger:  logger,
	}
	if stack.Analyzer != nil {
		deps.Analyzer = stack.Analyzer
		deps.Runner = stack.Orchestrator
	}
	if db != nil {
		deps.Health = map[string]api.HealthCheck{
			"database": func(ctx context.Context) error { return database.HealthCheck(ctx, db) },
		}
	}

	handler := server.SPAMiddleware(api.NewRouter(deps), cfg.Server.StaticDir)
	srv := server.New(ctx, cfg.Server, logger, handler)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case sig := <-waitForSignal():
		logger.Info("received signal", "signal", sig.String())
	}

	// Streams and upstream calls observe ctx.
	cancel()
	if err := srv.Shutdown(context.Background()); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	logger.Info("shutdown complete")
	return nil
}

func waitForSignal() <-chan os.Signal {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	return c
}
