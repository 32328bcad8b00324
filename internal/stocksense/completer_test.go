package stocksense

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedCall struct {
	provider string
	status   int
}

type fakeRecorder struct {
	calls []recordedCall
}

func (r *fakeRecorder) ObserveUpstream(provider string, status int, _ time.Duration) {
	r.calls = append(r.calls, recordedCall{provider, status})
}

func TestInstrumentRecordsOutcome(t *testing.T) {
	rec := &fakeRecorder{}

	ok := Instrument(fixedCompleter("{}", nil), ProviderAnthropic, rec)
	_, err := ok.Complete(context.Background(), "s", "u")
	require.NoError(t, err)

	limited := Instrument(fixedCompleter("", NewUpstreamError(http.StatusTooManyRequests, "slow")), ProviderOpenAI, rec)
	_, err = limited.Complete(context.Background(), "s", "u")
	require.Error(t, err)

	broken := Instrument(fixedCompleter("", errors.New("dial")), ProviderOpenAI, rec)
	_, _ = broken.Complete(context.Background(), "s", "u")

	assert.Equal(t, []recordedCall{
		{ProviderAnthropic, http.StatusOK},
		{ProviderOpenAI, http.StatusTooManyRequests},
		{ProviderOpenAI, http.StatusBadGateway},
	}, rec.calls)
}

func TestRateLimitedCompleterHonoursContext(t *testing.T) {
	calls := 0
	next := CompleterFunc(func(context.Context, string, string) (string, error) {
		calls++
		return "{}", nil
	})
	limited := NewRateLimitedCompleter(next, 1)

	_, err := limited.Complete(context.Background(), "s", "u")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = limited.Complete(ctx, "s", "u")
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRateLimitedCompleterDisabled(t *testing.T) {
	next := NewAnthropicClient(AnthropicConfig{APIKey: "k"}, nil, nil)
	assert.Same(t, next, NewRateLimitedCompleter(next, 0))
}

func TestNewCompleter(t *testing.T) {
	_, err := NewCompleter(ProviderConfig{Provider: ProviderAnthropic}, nil, nil)
	assert.ErrorIs(t, err, ErrNoAPIKey)

	c, err := NewCompleter(ProviderConfig{Provider: "OpenAI", OpenAI: OpenAIConfig{APIKey: "sk"}}, nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &OpenAIClient{}, c)

	c, err = NewCompleter(ProviderConfig{Anthropic: AnthropicConfig{APIKey: "k"}}, nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &AnthropicClient{}, c)

	_, err = NewCompleter(ProviderConfig{Provider: "gemini"}, nil, nil)
	assert.Error(t, err)
}
