package stocksense

import (
	"errors"
	"fmt"
	"net/http"
)

// Messages returned to callers when the model output cannot be used.
const (
	MsgNoJSON      = "Model response did not include valid JSON."
	MsgBadShape    = "Unexpected analysis response format."
	MsgAnthropic   = "Anthropic request failed."
	MsgOpenAI      = "OpenAI request failed."
	MsgEmptyStream = "Upstream returned an empty response body."
)

// UpstreamError is a non-success outcome from the LLM provider, or a model
// response that could not be interpreted. Status is passed through to HTTP
// callers.
type UpstreamError struct {
	Status  int
	Message string
	Err     error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upstream %d: %s: %v", e.Status, e.Message, e.Err)
	}
	return fmt.Sprintf("upstream %d: %s", e.Status, e.Message)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// NewUpstreamError builds an UpstreamError; a zero status becomes 502.
func NewUpstreamError(status int, message string) *UpstreamError {
	if status == 0 {
		status = http.StatusBadGateway
	}
	return &UpstreamError{Status: status, Message: message}
}

// IsRateLimited reports whether err carries an upstream 429.
func IsRateLimited(err error) bool {
	var upstream *UpstreamError
	return errors.As(err, &upstream) && upstream.Status == http.StatusTooManyRequests
}

// AsUpstream extracts the UpstreamError from err's chain, if any.
func AsUpstream(err error) (*UpstreamError, bool) {
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return upstream, true
	}
	return nil, false
}
