package stocksense

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = openai.GPT4o

// OpenAIConfig holds settings for any OpenAI-compatible chat endpoint.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float32
}

// OpenAIClient streams chat completions through go-openai.
type OpenAIClient struct {
	client *openai.Client
	cfg    OpenAIConfig
	logger *slog.Logger
}

// NewOpenAIClient builds a client; httpClient may be nil.
func NewOpenAIClient(cfg OpenAIConfig, httpClient *http.Client, logger *slog.Logger) *OpenAIClient {
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if logger == nil {
		logger = slog.Default()
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if httpClient != nil {
		clientCfg.HTTPClient = httpClient
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientCfg),
		cfg:    cfg,
		logger: logger,
	}
}

// Complete implements Completer.
func (c *OpenAIClient) Complete(ctx context.Context, system, user string) (string, error) {
	request := openai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
		Stream:      true,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	}

	stream, err := c.client.CreateChatCompletionStream(ctx, request)
	if err != nil {
		return "", c.mapError(ctx, err)
	}
	defer stream.Close()

	var text strings.Builder
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", c.mapError(ctx, err)
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		text.WriteString(chunk.Choices[0].Delta.Content)
	}

	return text.String(), nil
}

func (c *OpenAIClient) mapError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		message := apiErr.Message
		if message == "" {
			message = MsgOpenAI
		}
		upstream := NewUpstreamError(apiErr.HTTPStatusCode, message)
		upstream.Err = err
		return upstream
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		upstream := NewUpstreamError(reqErr.HTTPStatusCode, MsgOpenAI)
		upstream.Err = err
		return upstream
	}

	c.logger.Warn("openai stream failed", "model", c.cfg.Model, "error", err)
	return &UpstreamError{Status: http.StatusBadGateway, Message: MsgOpenAI, Err: fmt.Errorf("openai stream: %w", err)}
}
