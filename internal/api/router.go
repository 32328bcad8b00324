// Package api serves the allocation scorer and the stock analysis flows
// over HTTP and websockets.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/tenlabs01/Diverss/internal/allocation"
	"github.com/tenlabs01/Diverss/internal/leads"
	"github.com/tenlabs01/Diverss/internal/models"
	"github.com/tenlabs01/Diverss/internal/orchestrator"
)

const defaultMaxBodyBytes = 1 << 20

// Runner executes multi-batch analyses.
type Runner interface {
	RunParallel(ctx context.Context, items []models.LineItem) (*models.RunResult, error)
	RunSequential(ctx context.Context, items []models.LineItem, observer orchestrator.Observer) (*models.RunResult, error)
}

// LeadDispatcher forwards captured contact details.
type LeadDispatcher interface {
	Dispatch(ctx context.Context, lead leads.Lead)
}

// MetricsCollector instruments handlers and serves the scrape endpoint.
type MetricsCollector interface {
	Handler() http.Handler
	InstrumentHandler(next http.Handler) http.Handler
}

// HealthCheck reports whether a backing dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Deps are the collaborators behind the routes. Analyzer and Runner are nil
// when no upstream API key is configured; the stock routes then answer 500.
type Deps struct {
	Scorer       *allocation.Scorer
	Analyzer     orchestrator.BatchAnalyzer
	Runner       Runner
	Leads        LeadDispatcher
	Metrics      MetricsCollector
	Health       map[string]HealthCheck
	Logger       *slog.Logger
	MaxBodyBytes int64
}

// Handler holds the route handlers.
type Handler struct {
	scorer       *allocation.Scorer
	analyzer     orchestrator.BatchAnalyzer
	runner       Runner
	leads        LeadDispatcher
	health       map[string]HealthCheck
	logger       *slog.Logger
	maxBodyBytes int64
}

// NewRouter mounts every route both bare and under /api, and wraps the mux
// with CORS, request logging, metrics and panic recovery.
func NewRouter(deps Deps) http.Handler {
	h := &Handler{
		scorer:       deps.Scorer,
		analyzer:     deps.Analyzer,
		runner:       deps.Runner,
		leads:        deps.Leads,
		health:       deps.Health,
		logger:       deps.Logger,
		maxBodyBytes: deps.MaxBodyBytes,
	}
	if h.scorer == nil {
		h.scorer = allocation.NewScorer(allocation.DefaultTables())
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	if h.maxBodyBytes <= 0 {
		h.maxBodyBytes = defaultMaxBodyBytes
	}

	mux := http.NewServeMux()
	route := func(path string, methods []string, fn http.HandlerFunc) {
		handler := allowMethods(methods, fn)
		mux.Handle(path, handler)
		mux.Handle("/api"+path, handler)
	}

	get := []string{http.MethodGet}
	post := []string{http.MethodPost}

	route("/health", get, h.handleHealth)
	route("/analyze", post, h.handleAnalyze)
	route("/stocksense/analyze", post, h.handleStockSense)
	route("/stocksense/portfolio", post, h.handlePortfolio)
	route("/stocksense/stream", get, h.handleStream)

	var handler http.Handler = mux
	handler = withRecovery(h.logger)(handler)
	if deps.Metrics != nil {
		mux.Handle("/metrics", deps.Metrics.Handler())
		handler = deps.Metrics.InstrumentHandler(handler)
	}
	handler = withRequestLogging(h.logger)(handler)
	return withCORS(handler)
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// handleHealth answers 503 with status degraded when any registered check
// fails. Error text stays in the log.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}
	code := http.StatusOK
	if len(h.health) > 0 {
		resp.Checks = make(map[string]string, len(h.health))
	}
	for name, check := range h.health {
		if err := check(r.Context()); err != nil {
			h.logger.Warn("health check failed", "check", name, "error", err)
			resp.Checks[name] = "unavailable"
			resp.Status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}
	writeJSON(w, code, resp)
}

func (h *Handler) captureLead(r *http.Request, details *leads.Details, description string) {
	if h.leads == nil || details == nil {
		return
	}
	h.leads.Dispatch(r.Context(), leads.Lead{
		Details:              *details,
		PortfolioDescription: description,
		Source:               leads.DefaultSource,
		Meta:                 leads.MetaFromRequest(r),
	})
}

// normalizeDetails validates optional contact details.
func normalizeDetails(details *leads.Details) (*leads.Details, error) {
	if details == nil {
		return nil, nil
	}
	normalized, err := details.Normalize()
	if err != nil {
		return nil, err
	}
	return &normalized, nil
}
