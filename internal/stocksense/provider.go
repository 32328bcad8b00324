package stocksense

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
)

const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// ErrNoAPIKey means the selected provider has no API key configured.
var ErrNoAPIKey = errors.New("upstream api key is not set")

// ProviderConfig selects and configures one upstream.
type ProviderConfig struct {
	Provider  string
	Anthropic AnthropicConfig
	OpenAI    OpenAIConfig
}

// NewCompleter builds the Completer for cfg.Provider.
func NewCompleter(cfg ProviderConfig, httpClient *http.Client, logger *slog.Logger) (Completer, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderAnthropic:
		if cfg.Anthropic.APIKey == "" {
			return nil, ErrNoAPIKey
		}
		return NewAnthropicClient(cfg.Anthropic, httpClient, logger), nil
	case ProviderOpenAI:
		if cfg.OpenAI.APIKey == "" {
			return nil, ErrNoAPIKey
		}
		return NewOpenAIClient(cfg.OpenAI, httpClient, logger), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
