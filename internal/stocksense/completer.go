package stocksense

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Completer sends one system+user prompt pair to an LLM and returns the
// full concatenated text of the streamed reply.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, system, user string) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, system, user string) (string, error) {
	return f(ctx, system, user)
}

// RateLimitedCompleter paces calls to a shared upstream so that concurrent
// runs do not burst past the provider's request quota.
type RateLimitedCompleter struct {
	next    Completer
	limiter *rate.Limiter
}

// NewRateLimitedCompleter wraps next with a limiter allowing perMinute
// requests per minute. A non-positive perMinute returns next unchanged.
func NewRateLimitedCompleter(next Completer, perMinute int) Completer {
	if perMinute <= 0 {
		return next
	}
	interval := time.Minute / time.Duration(perMinute)
	return &RateLimitedCompleter{
		next:    next,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}
}

// Complete waits for a token, then delegates.
func (c *RateLimitedCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("waiting for upstream slot: %w", err)
	}
	return c.next.Complete(ctx, system, user)
}

// CallRecorder receives one observation per upstream call.
type CallRecorder interface {
	ObserveUpstream(provider string, status int, duration time.Duration)
}

type instrumentedCompleter struct {
	next     Completer
	provider string
	recorder CallRecorder
}

// Instrument reports each call's outcome to recorder. Successful calls are
// recorded as 200 and cancelled ones as 499.
func Instrument(next Completer, provider string, recorder CallRecorder) Completer {
	if recorder == nil {
		return next
	}
	return &instrumentedCompleter{next: next, provider: provider, recorder: recorder}
}

func (c *instrumentedCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	start := time.Now()
	text, err := c.next.Complete(ctx, system, user)
	c.recorder.ObserveUpstream(c.provider, outcomeStatus(ctx, err), time.Since(start))
	return text, err
}

func outcomeStatus(ctx context.Context, err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case ctx.Err() != nil:
		return 499
	}
	if upstream, ok := AsUpstream(err); ok {
		return upstream.Status
	}
	return http.StatusBadGateway
}
