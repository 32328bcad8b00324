package stocksense

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
)

const (
	DefaultAnthropicBaseURL = "https://api.anthropic.com"
	DefaultAnthropicModel   = "claude-sonnet-4-20250514"
	DefaultMaxTokens        = 4000
	DefaultTemperature      = 0.2
)

// AnthropicConfig holds the Messages API settings.
type AnthropicConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float64
}

// AnthropicClient streams completions from the Anthropic Messages API and
// keeps only text deltas. Frames that fail to decode are skipped rather
// than aborting the stream.
type AnthropicClient struct {
	client anthropic.Client
	cfg    AnthropicConfig
	logger *slog.Logger
}

// NewAnthropicClient fills unset config with defaults. httpClient may be nil.
// SDK retries are disabled; rate limits are retried per batch by the caller.
func NewAnthropicClient(cfg AnthropicConfig, httpClient *http.Client, logger *slog.Logger) *AnthropicClient {
	if cfg.Model == "" {
		cfg.Model = DefaultAnthropicModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultAnthropicBaseURL
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(strings.TrimRight(cfg.BaseURL, "/") + "/"),
		option.WithMaxRetries(0),
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}

	return &AnthropicClient{
		client: anthropic.NewClient(opts...),
		cfg:    cfg,
		logger: logger,
	}
}

func (c *AnthropicClient) params(system, user string) anthropic.MessageNewParams {
	return anthropic.MessageNewParams{
		Model:       anthropic.Model(c.cfg.Model),
		MaxTokens:   int64(c.cfg.MaxTokens),
		Temperature: anthropic.Float(c.cfg.Temperature),
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	}
}

// Complete implements Completer.
func (c *AnthropicClient) Complete(ctx context.Context, system, user string) (string, error) {
	// The raw response is decoded here instead of via Messages.NewStreaming,
	// which stops at the first frame it cannot parse.
	var resp *http.Response
	err := c.client.Post(ctx, "v1/messages", c.params(system, user), &resp,
		option.WithJSONSet("stream", true),
		option.WithResponseInto(&resp),
	)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if resp != nil && (resp.StatusCode < 200 || resp.StatusCode >= 300) {
			return "", NewUpstreamError(resp.StatusCode, anthropicErrorMessage(resp.Body))
		}
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", NewUpstreamError(apiErr.StatusCode, MsgAnthropic)
		}
		return "", &UpstreamError{Status: http.StatusBadGateway, Message: MsgAnthropic, Err: err}
	}
	if resp == nil || resp.Body == nil || resp.Body == http.NoBody {
		return "", NewUpstreamError(http.StatusBadGateway, MsgEmptyStream)
	}
	defer resp.Body.Close()

	text, err := c.readStream(ssestream.NewDecoder(resp))
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &UpstreamError{Status: http.StatusBadGateway, Message: MsgAnthropic, Err: err}
	}
	return text, nil
}

func (c *AnthropicClient) readStream(decoder ssestream.Decoder) (string, error) {
	var text strings.Builder
	skipped := 0
	for decoder.Next() {
		data := strings.TrimSpace(string(decoder.Event().Data))
		if data == "" || data == "[DONE]" {
			continue
		}

		var event anthropic.MessageStreamEventUnion
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			skipped++
			continue
		}
		if delta, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent); ok {
			if td, ok := delta.Delta.AsAny().(anthropic.TextDelta); ok {
				text.WriteString(td.Text)
			}
		}
	}
	if err := decoder.Err(); err != nil {
		return text.String(), fmt.Errorf("reading anthropic stream: %w", err)
	}

	if skipped > 0 {
		c.logger.Debug("skipped malformed stream frames", "count", skipped)
	}
	return text.String(), nil
}

func anthropicErrorMessage(body io.Reader) string {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if body == nil {
		return MsgAnthropic
	}
	if err := json.NewDecoder(io.LimitReader(body, 64*1024)).Decode(&payload); err != nil || payload.Error.Message == "" {
		return MsgAnthropic
	}
	return payload.Error.Message
}
