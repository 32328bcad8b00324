package models

// RunState is the orchestrator's lifecycle position for one analysis run.
type RunState string

const (
	RunIdle             RunState = "idle"
	RunRunning          RunState = "running"
	RunWaitingRateLimit RunState = "waiting_rate_limit"
	RunCompleted        RunState = "completed"
	RunAborted          RunState = "aborted" // cancelled by the caller
	RunFailed           RunState = "failed"  // a batch failed irrecoverably
)

// RunResult is what a multi-batch analysis hands back. Stocks and Summary
// always reflect every batch that completed, even when State is aborted or
// failed.
type RunResult struct {
	RunID            string           `json:"runId"`
	State            RunState         `json:"state"`
	TotalStocks      int              `json:"totalStocks"`
	TotalBatches     int              `json:"totalBatches"`
	CompletedBatches int              `json:"completedBatches"`
	Stocks           []StockVerdict   `json:"stocks"`
	Summary          AggregateSummary `json:"summary"`
	Skipped          int              `json:"skipped,omitempty"`
	Error            string           `json:"error,omitempty"`
}

// Partial reports whether the run ended before every batch completed.
func (r *RunResult) Partial() bool {
	return r.CompletedBatches < r.TotalBatches
}
