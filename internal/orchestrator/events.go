package orchestrator

import (
	"fmt"
	"time"

	"github.com/tenlabs01/Diverss/internal/models"
)

// EventType names a step in a sequential run.
type EventType string

const (
	EventRunStarted     EventType = "run_started"
	EventBatchStarted   EventType = "batch_started"
	EventRateLimited    EventType = "rate_limited"
	EventBatchCompleted EventType = "batch_completed"
	EventRunCompleted   EventType = "run_completed"
	EventRunAborted     EventType = "run_aborted"
	EventRunFailed      EventType = "run_failed"
)

// Event is emitted to an Observer as a sequential run progresses.
type Event struct {
	Type           EventType                `json:"type"`
	RunID          string                   `json:"runId"`
	State          models.RunState          `json:"state"`
	BatchIndex     int                      `json:"batchIndex"`
	TotalBatches   int                      `json:"totalBatches"`
	CompletedItems int                      `json:"completedItems"`
	TotalItems     int                      `json:"totalItems"`
	Stocks         []models.StockVerdict    `json:"stocks,omitempty"`
	Summary        *models.AggregateSummary `json:"summary,omitempty"` // running totals over every batch so far
	WaitSeconds    int                      `json:"waitSeconds,omitempty"`
	Message        string                   `json:"message,omitempty"`
	Result         *models.RunResult        `json:"result,omitempty"`
}

// Observer receives events in emission order from the run's goroutine.
type Observer interface {
	OnEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// OnEvent calls f.
func (f ObserverFunc) OnEvent(e Event) { f(e) }

type nopObserver struct{}

func (nopObserver) OnEvent(Event) {}

// RateLimitMessage is shown while a batch waits out a 429.
func RateLimitMessage(wait time.Duration) string {
	return fmt.Sprintf("Rate limit reached — retrying in %ds...", int(wait.Seconds()))
}

func terminalEvent(state models.RunState) EventType {
	switch state {
	case models.RunCompleted:
		return EventRunCompleted
	case models.RunAborted:
		return EventRunAborted
	default:
		return EventRunFailed
	}
}
