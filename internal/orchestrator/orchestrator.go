// Package orchestrator splits a portfolio into batches, runs each through
// the upstream analyzer with rate-limit retries, and merges the results.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tenlabs01/Diverss/internal/models"
	"github.com/tenlabs01/Diverss/internal/portfolio"
	"github.com/tenlabs01/Diverss/internal/stocksense"
)

// DefaultMaxParallel bounds concurrent upstream calls in RunParallel.
const DefaultMaxParallel = 5

// ErrNoItems is returned when a run is started with an empty portfolio.
var ErrNoItems = errors.New("portfolio has no line items")

// BatchAnalyzer performs one upstream analysis.
type BatchAnalyzer interface {
	Analyze(ctx context.Context, description string) (*models.BatchResult, error)
}

// Recorder receives batch-level measurements.
type Recorder interface {
	ObserveBatch(outcome string, duration time.Duration)
	ObserveRetry()
}

// Options configures an Orchestrator. Zero values select defaults.
type Options struct {
	Policy      *Policy
	Retry       *RetryPolicy
	MaxParallel int
	Sleep       Sleeper // inter-batch delay; nil means SleepContext
	Logger      *slog.Logger
	Recorder    Recorder
}

// Orchestrator runs multi-batch analyses. Each run owns its accumulator, so
// one Orchestrator can serve concurrent runs.
type Orchestrator struct {
	analyzer    BatchAnalyzer
	policy      Policy
	retry       RetryPolicy
	maxParallel int
	sleep       Sleeper
	logger      *slog.Logger
	recorder    Recorder
}

// New builds an Orchestrator around analyzer.
func New(analyzer BatchAnalyzer, opts Options) *Orchestrator {
	o := &Orchestrator{
		analyzer:    analyzer,
		policy:      DefaultPolicy(),
		retry:       DefaultRetryPolicy(),
		maxParallel: opts.MaxParallel,
		sleep:       opts.Sleep,
		logger:      opts.Logger,
		recorder:    opts.Recorder,
	}
	if opts.Policy != nil {
		o.policy = *opts.Policy
	}
	if opts.Retry != nil {
		o.retry = *opts.Retry
	}
	if o.maxParallel <= 0 {
		o.maxParallel = DefaultMaxParallel
	}
	if o.sleep == nil {
		o.sleep = SleepContext
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// AnalyzeBatch runs a single batch with retries.
func (o *Orchestrator) AnalyzeBatch(ctx context.Context, batch models.Batch, onWait WaitFunc) (*models.BatchResult, error) {
	start := time.Now()
	description := portfolio.Describe(batch.Items)

	var result *models.BatchResult
	err := Retry(ctx, o.retry, func(retry int, wait time.Duration) {
		if o.recorder != nil {
			o.recorder.ObserveRetry()
		}
		o.logger.Warn("upstream rate limited, backing off",
			"batch", batch.Index,
			"retry", retry+1,
			"wait_seconds", int(wait.Seconds()))
		if onWait != nil {
			onWait(retry, wait)
		}
	}, func(ctx context.Context) error {
		var err error
		result, err = o.analyzer.Analyze(ctx, description)
		return err
	})

	outcome := "ok"
	switch {
	case err == nil:
	case ctx.Err() != nil:
		outcome = "cancelled"
	case stocksense.IsRateLimited(err):
		outcome = "rate_limited"
	default:
		outcome = "error"
	}
	if o.recorder != nil {
		o.recorder.ObserveBatch(outcome, time.Since(start))
	}

	if err != nil {
		return nil, fmt.Errorf("batch %d: %w", batch.Index, err)
	}
	return result, nil
}

type batchOutcome struct {
	index      int
	result     *models.BatchResult
	err        error
	dispatched bool
}

// RunParallel analyzes all batches with at most MaxParallel in flight and
// reassembles results in batch order. After the first failure no further
// batches are dispatched; batches already in flight are allowed to finish
// and their stocks are kept.
func (o *Orchestrator) RunParallel(ctx context.Context, items []models.LineItem) (*models.RunResult, error) {
	if len(items) == 0 {
		return nil, ErrNoItems
	}

	batches := o.policy.Partition(items)
	run := newRun(items, batches)
	logger := o.logger.With("run_id", run.RunID)

	workers := min(o.maxParallel, len(batches))
	logger.Info("parallel run started", "stocks", len(items), "batches", len(batches), "workers", workers)
	start := time.Now()

	jobs := make(chan models.Batch)
	outcomes := make(chan batchOutcome, len(batches))
	stop := make(chan struct{})
	var stopOnce sync.Once

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for batch := range jobs {
				select {
				case <-stop:
					outcomes <- batchOutcome{index: batch.Index}
					continue
				default:
				}

				result, err := o.AnalyzeBatch(ctx, batch, nil)
				if err != nil {
					stopOnce.Do(func() { close(stop) })
				}
				outcomes <- batchOutcome{index: batch.Index, result: result, err: err, dispatched: true}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, batch := range batches {
			select {
			case <-stop:
				return
			case <-ctx.Done():
				return
			case jobs <- batch:
			}
		}
	}()

	wg.Wait()
	close(outcomes)

	ordered := make([]batchOutcome, len(batches))
	for outcome := range outcomes {
		ordered[outcome.index] = outcome
	}

	var firstErr error
	for _, outcome := range ordered {
		switch {
		case outcome.err != nil:
			if firstErr == nil {
				firstErr = outcome.err
			}
		case outcome.result != nil:
			run.add(outcome.result)
		}
	}

	switch {
	case ctx.Err() != nil:
		run.finish(models.RunAborted, ctx.Err())
	case firstErr != nil:
		run.finish(models.RunFailed, firstErr)
	default:
		run.finish(models.RunCompleted, nil)
	}

	logger.Info("parallel run finished",
		"state", run.State,
		"completed_batches", run.CompletedBatches,
		"stocks", len(run.Stocks),
		"duration_ms", time.Since(start).Milliseconds())

	return run.RunResult, run.err
}

// RunSequential analyzes batches one at a time, pausing between them per
// the policy, and reports progress to observer in order. Cancelling ctx
// stops the run before the next batch; completed batches are kept.
func (o *Orchestrator) RunSequential(ctx context.Context, items []models.LineItem, observer Observer) (*models.RunResult, error) {
	if len(items) == 0 {
		return nil, ErrNoItems
	}
	if observer == nil {
		observer = nopObserver{}
	}

	batches := o.policy.Partition(items)
	delay := o.policy.Delay(len(items))
	run := newRun(items, batches)
	logger := o.logger.With("run_id", run.RunID)

	emit := func(e Event) {
		e.RunID = run.RunID
		e.State = run.State
		e.TotalBatches = len(batches)
		e.TotalItems = len(items)
		e.CompletedItems = len(run.Stocks)
		observer.OnEvent(e)
	}

	run.State = models.RunRunning
	emit(Event{Type: EventRunStarted})
	logger.Info("sequential run started", "stocks", len(items), "batches", len(batches), "delay_ms", delay.Milliseconds())

	state := models.RunCompleted
	var cause error

	for i, batch := range batches {
		if err := ctx.Err(); err != nil {
			state, cause = models.RunAborted, err
			break
		}

		emit(Event{Type: EventBatchStarted, BatchIndex: batch.Index})

		result, err := o.AnalyzeBatch(ctx, batch, func(_ int, wait time.Duration) {
			run.State = models.RunWaitingRateLimit
			emit(Event{
				Type:        EventRateLimited,
				BatchIndex:  batch.Index,
				WaitSeconds: int(wait.Seconds()),
				Message:     RateLimitMessage(wait),
			})
		})
		run.State = models.RunRunning

		if err != nil {
			if ctx.Err() != nil {
				state, cause = models.RunAborted, ctx.Err()
			} else {
				state, cause = models.RunFailed, err
			}
			logger.Warn("batch failed", "batch", batch.Index, "error", err)
			break
		}

		run.add(result)
		summary := Merge(run.Stocks)
		emit(Event{Type: EventBatchCompleted, BatchIndex: batch.Index, Stocks: result.Stocks, Summary: &summary})

		if i < len(batches)-1 && delay > 0 {
			if err := o.sleep(ctx, delay); err != nil {
				state, cause = models.RunAborted, err
				break
			}
		}
	}

	run.finish(state, cause)
	emit(Event{Type: terminalEvent(run.State), Message: run.Error, Result: run.RunResult})
	logger.Info("sequential run finished", "state", run.State, "completed_batches", run.CompletedBatches)

	return run.RunResult, run.err
}

// runState accumulates one run's results.
type runState struct {
	*models.RunResult
	err error
}

func newRun(items []models.LineItem, batches []models.Batch) *runState {
	return &runState{RunResult: &models.RunResult{
		RunID:        uuid.NewString(),
		State:        models.RunIdle,
		TotalStocks:  len(items),
		TotalBatches: len(batches),
		Stocks:       []models.StockVerdict{},
	}}
}

func (r *runState) add(result *models.BatchResult) {
	r.Stocks = append(r.Stocks, result.Stocks...)
	r.Skipped += result.Skipped
	r.CompletedBatches++
}

func (r *runState) finish(state models.RunState, cause error) {
	r.State = state
	r.Summary = Merge(r.Stocks)
	if cause == nil {
		return
	}
	r.err = cause
	r.Error = fmt.Sprintf("Analysis stopped after %d of %d stocks: %s", len(r.Stocks), r.TotalStocks, causeMessage(cause))
}

func causeMessage(err error) string {
	if errors.Is(err, context.Canceled) {
		return "cancelled"
	}
	if upstream, ok := stocksense.AsUpstream(err); ok {
		return upstream.Message
	}
	return err.Error()
}
