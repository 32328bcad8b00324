package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/tenlabs01/Diverss/internal/leads"
	"github.com/tenlabs01/Diverss/internal/stocksense"
)

const (
	msgMethodNotAllowed   = "Method not allowed"
	msgInvalidJSON        = "Invalid JSON body."
	msgInternal           = "Internal server error"
	msgPortfolioFailed    = "Portfolio analysis failed."
	msgStockSenseFailed   = "StockSense analysis failed."
	msgMissingDescription = "Missing portfolioDescription."
	msgCouldNotParse      = "Could not parse portfolio."
)

// ValidationError represents a rejected request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ErrMisconfigured is returned when no upstream API key is set. The key name
// is never echoed.
var ErrMisconfigured = errors.New("Server misconfigured: upstream API key is not set.")

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorStatus maps err to an HTTP status and a client-safe message.
func errorStatus(err error, fallback string) (int, string) {
	var validation ValidationError
	var details *leads.DetailsError

	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, validation.Message
	case errors.As(err, &details):
		return http.StatusBadRequest, details.Message
	case errors.Is(err, ErrMisconfigured):
		return http.StatusInternalServerError, ErrMisconfigured.Error()
	}

	if upstream, ok := stocksense.AsUpstream(err); ok {
		return upstream.Status, upstream.Message
	}
	return http.StatusInternalServerError, fallback
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	logger := loggerFrom(r.Context(), h.logger)
	if errors.Is(err, context.Canceled) {
		logger.Info("request cancelled by client", "path", r.URL.Path)
		return
	}

	status, message := errorStatus(err, fallback)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "path", r.URL.Path, "status", status, "error", err)
	} else {
		logger.Warn("request rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	writeError(w, status, message)
}
