package leads

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Dispatcher delivers leads in the background so the analysis response is
// never held up by a slow sink.
type Dispatcher struct {
	sink    Sink
	timeout time.Duration
	logger  *slog.Logger
	now     func() time.Time
	wg      sync.WaitGroup
}

// NewDispatcher wraps sink. A nil sink turns Dispatch into a logged no-op.
func NewDispatcher(sink Sink, timeout time.Duration, logger *slog.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = 2 * DefaultWebhookTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{sink: sink, timeout: timeout, logger: logger, now: time.Now}
}

// Dispatch sends lead asynchronously. The delivery outlives ctx's
// cancellation but keeps its values.
func (d *Dispatcher) Dispatch(ctx context.Context, lead Lead) {
	if d.sink == nil {
		d.logger.Debug("lead capture skipped", "reason", "missing_webhook")
		return
	}
	if lead.Timestamp.IsZero() {
		lead.Timestamp = d.now()
	}
	if lead.Source == "" {
		lead.Source = DefaultSource
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer cancel()

		if err := d.sink.Send(ctx, lead); err != nil {
			d.logger.Warn("lead capture failed", "source", lead.Source, "error", err)
			return
		}
		d.logger.Debug("lead captured", "source", lead.Source)
	}()
}

// Close waits for in-flight deliveries.
func (d *Dispatcher) Close() {
	d.wg.Wait()
}
