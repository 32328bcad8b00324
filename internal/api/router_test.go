package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenlabs01/Diverss/internal/leads"
	"github.com/tenlabs01/Diverss/internal/models"
	"github.com/tenlabs01/Diverss/internal/orchestrator"
	"github.com/tenlabs01/Diverss/internal/stocksense"
)

type stubAnalyzer struct {
	mu    sync.Mutex
	calls []string
	fn    func(call int, description string) (*models.BatchResult, error)
}

func (s *stubAnalyzer) Analyze(_ context.Context, description string) (*models.BatchResult, error) {
	s.mu.Lock()
	s.calls = append(s.calls, description)
	call := len(s.calls)
	s.mu.Unlock()

	if s.fn != nil {
		return s.fn(call, description)
	}
	return verdictsFor(description), nil
}

func verdictsFor(description string) *models.BatchResult {
	result := &models.BatchResult{}
	for _, line := range strings.Split(description, "\n") {
		symbol, _, _ := strings.Cut(line, ":")
		result.Stocks = append(result.Stocks, models.StockVerdict{
			Symbol: symbol, Quantity: 2, AvgPrice: 100, LTP: 120,
			Verdict: models.VerdictHold, WeightedScore: 3.5,
		})
	}
	return result
}

type leadRecorder struct {
	mu    sync.Mutex
	leads []leads.Lead
}

func (l *leadRecorder) Dispatch(_ context.Context, lead leads.Lead) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.leads = append(l.leads, lead)
}

func (l *leadRecorder) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.leads)
}

func instantSleep(ctx context.Context, _ time.Duration) error { return ctx.Err() }

func newTestRouter(analyzer orchestrator.BatchAnalyzer, recorder *leadRecorder) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	deps := Deps{Logger: logger}
	if recorder != nil {
		deps.Leads = recorder
	}
	if analyzer != nil {
		retry := orchestrator.DefaultRetryPolicy()
		retry.Sleep = instantSleep
		deps.Analyzer = analyzer
		deps.Runner = orchestrator.New(analyzer, orchestrator.Options{
			Retry:  &retry,
			Sleep:  instantSleep,
			Logger: logger,
		})
	}
	return NewRouter(deps)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func errorBody(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body.Error
}

func TestHealthReportsDegradedDependency(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	failing := errors.New("connection refused")

	tests := []struct {
		name     string
		check    HealthCheck
		wantCode int
		wantBody string
	}{
		{"healthy", func(context.Context) error { return nil }, http.StatusOK,
			`{"status":"ok","checks":{"database":"ok"}}`},
		{"down", func(context.Context) error { return failing }, http.StatusServiceUnavailable,
			`{"status":"degraded","checks":{"database":"unavailable"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewRouter(Deps{Logger: logger, Health: map[string]HealthCheck{"database": tt.check}})
			for _, path := range []string{"/health", "/api/health"} {
				rr := do(t, h, http.MethodGet, path, "")
				assert.Equal(t, tt.wantCode, rr.Code, path)
				assert.JSONEq(t, tt.wantBody, rr.Body.String(), path)
				assert.NotContains(t, rr.Body.String(), "refused")
			}
		})
	}
}

func TestHealthAndMethodHandling(t *testing.T) {
	h := newTestRouter(nil, nil)

	for _, prefix := range []string{"", "/api"} {
		rr := do(t, h, http.MethodGet, prefix+"/health", "")
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
		assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
		assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))

		rr = do(t, h, http.MethodOptions, prefix+"/health", "")
		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Equal(t, "GET, OPTIONS", rr.Header().Get("Allow"))
		assert.Empty(t, rr.Body.String())

		rr = do(t, h, http.MethodPost, prefix+"/health", "")
		assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
		assert.Equal(t, "GET, OPTIONS", rr.Header().Get("Allow"))
		assert.Equal(t, "Method not allowed", errorBody(t, rr))
	}

	for _, path := range []string{"/analyze", "/stocksense/analyze", "/api/stocksense/portfolio"} {
		rr := do(t, h, http.MethodGet, path, "")
		assert.Equal(t, http.StatusMethodNotAllowed, rr.Code, path)
		assert.Equal(t, "POST, OPTIONS", rr.Header().Get("Allow"), path)

		rr = do(t, h, http.MethodOptions, path, "")
		assert.Equal(t, http.StatusNoContent, rr.Code, path)
		assert.Equal(t, "POST, OPTIONS", rr.Header().Get("Allow"), path)
	}
}

func TestAnalyzeScoresAllocation(t *testing.T) {
	h := newTestRouter(nil, nil)

	rr := do(t, h, http.MethodPost, "/api/analyze", `{
		"name": " Asha ",
		"age": "40",
		"riskAppetite": "Moderate",
		"horizon": "7-15 years",
		"allocation": {"stocks": 50000, "bonds": "50000", "crypto": 999}
	}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var result models.ScoreResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
	assert.Equal(t, "Asha", result.Name)
	assert.Equal(t, 40.0, result.Age)
	assert.Equal(t, 50.0, result.Allocation[models.AssetStocks])
	assert.Equal(t, 50.0, result.Allocation[models.AssetBonds])
	assert.Equal(t, 100.0, result.Allocation.Total())
	assert.Equal(t, 100.0, result.SuggestedAllocation.Total())
}

func TestAnalyzeDefaultsAndBadJSON(t *testing.T) {
	h := newTestRouter(nil, nil)

	rr := do(t, h, http.MethodPost, "/analyze", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var result models.ScoreResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
	assert.Equal(t, float64(models.DefaultAge), result.Age)
	assert.Equal(t, models.RiskModerate, result.RiskAppetite)

	for body, want := range map[string]float64{
		`{"age":null}`:  models.MinAge,
		`{"age":""}`:    models.MinAge,
		`{"age":"abc"}`: models.DefaultAge,
		`{"age":"45"}`:  45,
	} {
		rr = do(t, h, http.MethodPost, "/analyze", body)
		require.Equal(t, http.StatusOK, rr.Code, body)
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result), body)
		assert.Equal(t, want, result.Age, body)
	}

	rr = do(t, h, http.MethodPost, "/analyze", `{"age":`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, msgInvalidJSON, errorBody(t, rr))
}

func TestStockSenseValidation(t *testing.T) {
	recorder := &leadRecorder{}
	h := newTestRouter(&stubAnalyzer{}, recorder)

	rr := do(t, h, http.MethodPost, "/stocksense/analyze", `{"portfolioDescription": "   "}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Missing portfolioDescription.", errorBody(t, rr))

	rr = do(t, h, http.MethodPost, "/stocksense/analyze", `{
		"portfolioDescription": "TCS: Qty=1, AvgPrice=₹1, LTP=unknown",
		"userDetails": {"name": "Asha", "email": "not-an-email", "phone": "9876543210"}
	}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Invalid email.", errorBody(t, rr))
	assert.Zero(t, recorder.count())
}

func TestStockSenseMisconfigured(t *testing.T) {
	h := newTestRouter(nil, nil)

	rr := do(t, h, http.MethodPost, "/stocksense/analyze", `{"portfolioDescription": "TCS: Qty=1, AvgPrice=₹1, LTP=unknown"}`)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	msg := errorBody(t, rr)
	assert.Equal(t, ErrMisconfigured.Error(), msg)
	assert.NotContains(t, msg, "ANTHROPIC")
}

func TestStockSenseSuccessCapturesFirstBatchLead(t *testing.T) {
	recorder := &leadRecorder{}
	analyzer := &stubAnalyzer{}
	h := newTestRouter(analyzer, recorder)

	body := `{
		"portfolioDescription": "TCS: Qty=2, AvgPrice=₹100, LTP=₹120\nINFY: Qty=2, AvgPrice=₹100, LTP=₹120",
		"batchIndex": 0,
		"userDetails": {"name": " Asha ", "email": "ASHA@example.com", "phone": "+91 98765 43210"}
	}`
	rr := do(t, h, http.MethodPost, "/api/stocksense/analyze", body)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp stockSenseResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Result.Stocks, 2)
	assert.Equal(t, 400.0, resp.Result.Summary.TotalInvested)
	assert.Equal(t, 480.0, resp.Result.Summary.CurrentValue)

	require.Equal(t, 1, recorder.count())
	lead := recorder.leads[0]
	assert.Equal(t, "Asha", lead.Name)
	assert.Equal(t, "asha@example.com", lead.Email)
	assert.Equal(t, "919876543210", lead.Phone)
	assert.Equal(t, leads.DefaultSource, lead.Source)

	rr = do(t, h, http.MethodPost, "/stocksense/analyze", strings.Replace(body, `"batchIndex": 0`, `"batchIndex": 1`, 1))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, recorder.count())
}

func TestStockSenseUpstreamStatusPassthrough(t *testing.T) {
	analyzer := &stubAnalyzer{fn: func(int, string) (*models.BatchResult, error) {
		return nil, stocksense.NewUpstreamError(http.StatusTooManyRequests, "Rate limited, slow down.")
	}}
	h := newTestRouter(analyzer, nil)

	rr := do(t, h, http.MethodPost, "/stocksense/analyze", `{"portfolioDescription": "TCS: Qty=1, AvgPrice=₹1, LTP=unknown"}`)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "Rate limited, slow down.", errorBody(t, rr))
	assert.Len(t, analyzer.calls, 1)
}

func TestPortfolioRunsAllBatches(t *testing.T) {
	recorder := &leadRecorder{}
	analyzer := &stubAnalyzer{}
	h := newTestRouter(analyzer, recorder)

	var csv strings.Builder
	csv.WriteString("Symbol,Quantity,AvgPrice,LTP\n")
	for i := 0; i < 12; i++ {
		csv.WriteString("SYM" + string(rune('A'+i)) + ",2,100,120\n")
	}
	payload, err := json.Marshal(map[string]any{
		"csv":         csv.String(),
		"userDetails": map[string]string{"name": "Asha", "email": "a@b.co", "phone": "9876543210"},
	})
	require.NoError(t, err)

	rr := do(t, h, http.MethodPost, "/stocksense/portfolio", string(payload))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp runResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, models.RunCompleted, resp.Result.State)
	assert.Equal(t, 2, resp.Result.TotalBatches)
	require.Len(t, resp.Result.Stocks, 12)
	assert.Equal(t, "SYMA", resp.Result.Stocks[0].Symbol)
	assert.Equal(t, "SYML", resp.Result.Stocks[11].Symbol)
	assert.Equal(t, 2400.0, resp.Result.Summary.TotalInvested)
	assert.Empty(t, resp.Error)
	assert.Len(t, analyzer.calls, 2)
	assert.Equal(t, 1, recorder.count())
}

func TestPortfolioOutlastsServerWriteTimeout(t *testing.T) {
	analyzer := &stubAnalyzer{fn: func(_ int, description string) (*models.BatchResult, error) {
		time.Sleep(200 * time.Millisecond)
		return verdictsFor(description), nil
	}}
	srv := httptest.NewUnstartedServer(newTestRouter(analyzer, nil))
	srv.Config.WriteTimeout = 50 * time.Millisecond
	srv.Start()
	defer srv.Close()

	body := `{"csv":"Symbol,Quantity,AvgPrice,LTP\nSYMA,2,100,120\n"}`
	resp, err := http.Post(srv.URL+"/stocksense/portfolio", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var out runResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out.Result.Stocks, 1)
	assert.Equal(t, "SYMA", out.Result.Stocks[0].Symbol)
}

func TestPortfolioHoldingsAndErrors(t *testing.T) {
	t.Run("structured holdings", func(t *testing.T) {
		h := newTestRouter(&stubAnalyzer{}, nil)
		rr := do(t, h, http.MethodPost, "/stocksense/portfolio", `{"holdings": [
			{"symbol": "jiofin", "quantity": "530", "avgPrice": 355.21, "ltp": 256.25}
		]}`)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		var resp runResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "JIOFIN", resp.Result.Stocks[0].Symbol)
	})

	t.Run("unparsable csv", func(t *testing.T) {
		h := newTestRouter(&stubAnalyzer{}, nil)
		rr := do(t, h, http.MethodPost, "/stocksense/portfolio", `{"csv": "Symbol,Quantity,AvgPrice,LTP\n"}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Could not parse portfolio.", errorBody(t, rr))
	})

	t.Run("every batch fails", func(t *testing.T) {
		analyzer := &stubAnalyzer{fn: func(int, string) (*models.BatchResult, error) {
			return nil, stocksense.NewUpstreamError(http.StatusBadGateway, stocksense.MsgNoJSON)
		}}
		h := newTestRouter(analyzer, nil)
		rr := do(t, h, http.MethodPost, "/stocksense/portfolio", `{"csv": "TCS,1,100,110"}`)
		assert.Equal(t, http.StatusBadGateway, rr.Code)

		var resp runResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, models.RunFailed, resp.Result.State)
		assert.Equal(t, "Analysis stopped after 0 of 1 stocks: "+stocksense.MsgNoJSON, resp.Error)
	})

	t.Run("partial failure is still 200", func(t *testing.T) {
		analyzer := &stubAnalyzer{fn: func(call int, description string) (*models.BatchResult, error) {
			if call == 2 {
				return nil, stocksense.NewUpstreamError(http.StatusInternalServerError, "upstream broke")
			}
			return verdictsFor(description), nil
		}}
		h := newTestRouter(analyzer, nil)

		var csv strings.Builder
		for i := 0; i < 24; i++ {
			csv.WriteString("S" + string(rune('A'+i)) + ",1,100,110\n")
		}
		payload, _ := json.Marshal(map[string]string{"csv": csv.String()})

		rr := do(t, h, http.MethodPost, "/stocksense/portfolio", string(payload))
		require.Equal(t, http.StatusOK, rr.Code)
		var resp runResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, models.RunFailed, resp.Result.State)
		assert.NotEmpty(t, resp.Result.Stocks)
		assert.Contains(t, resp.Error, "upstream broke")
	})
}

func TestRecoveryReturnsJSON(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := withRequestLogging(logger)(withRecovery(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))

	rr := do(t, h, http.MethodPost, "/analyze", "{}")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, msgInternal, errorBody(t, rr))
}

func TestFlexNumber(t *testing.T) {
	tests := []struct {
		in    string
		value float64
		valid bool
		blank bool
	}{
		{`42`, 42, true, false},
		{`"12.5"`, 12.5, true, false},
		{`" 7 "`, 7, true, false},
		{`""`, 0, false, true},
		{`"  "`, 0, false, true},
		{`"abc"`, 0, false, false},
		{`null`, 0, false, true},
		{`true`, 0, false, false},
	}

	for _, tt := range tests {
		var n FlexNumber
		require.NoError(t, json.Unmarshal([]byte(tt.in), &n), tt.in)
		assert.Equal(t, tt.valid, n.Valid, tt.in)
		assert.Equal(t, tt.blank, n.Blank, tt.in)
		if tt.valid {
			assert.Equal(t, tt.value, n.Float(), tt.in)
		}
		if tt.valid || tt.blank {
			assert.Equal(t, tt.value, n.Coerced(), tt.in)
		} else {
			assert.True(t, math.IsNaN(n.Coerced()), tt.in)
		}
	}
}
