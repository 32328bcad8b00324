package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config is the service configuration. Values come from defaults, then the
// optional TOML file named by DIVERSS_CONFIG, then environment variables.
type Config struct {
	Server   ServerConfig
	Logging  LoggingConfig
	LLM      LLMConfig
	Batch    BatchConfig
	Leads    LeadsConfig
	Database DatabaseConfig
}

// ServerConfig holds HTTP server runtime parameters.
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	StaticDir       string // built web client; empty serves the API only
}

// LoggingConfig represents structured logging configuration.
type LoggingConfig struct {
	Level  slog.Level
	Format string
}

// LLMConfig selects and tunes the upstream model provider.
type LLMConfig struct {
	Provider          string
	AnthropicAPIKey   string
	AnthropicModel    string
	AnthropicBaseURL  string
	OpenAIAPIKey      string
	OpenAIModel       string
	OpenAIBaseURL     string
	MaxTokens         int
	Temperature       float64
	Timeout           time.Duration
	RequestsPerMinute int // 0 disables client-side pacing
}

// APIKey returns the key for the selected provider.
func (c LLMConfig) APIKey() string {
	if c.Provider == ProviderOpenAI {
		return c.OpenAIAPIKey
	}
	return c.AnthropicAPIKey
}

// BatchConfig tunes the multi-batch orchestrator.
type BatchConfig struct {
	MaxParallel int
}

// LeadsConfig configures lead capture sinks.
type LeadsConfig struct {
	WebhookURL     string
	WebhookTimeout time.Duration
}

// DatabaseConfig is optional; with neither URL nor Instance set the
// Postgres lead sink is disabled.
type DatabaseConfig struct {
	URL           string
	MigrationsDir string

	// Cloud SQL socket settings, used when URL is empty.
	Instance string
	User     string
	Password string
	Name     string
}

const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

const (
	defaultPort            = "5050"
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 5 * time.Minute
	defaultShutdownTimeout = 15 * time.Second

	defaultLogFormat = "json"

	defaultAnthropicModel = "claude-sonnet-4-20250514"
	defaultMaxTokens      = 4000
	defaultTemperature    = 0.2
	defaultLLMTimeout     = 3 * time.Minute

	defaultMaxParallel    = 5
	defaultWebhookTimeout = 2500 * time.Millisecond
)

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            defaultPort,
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Logging: LoggingConfig{
			Level:  slog.LevelInfo,
			Format: defaultLogFormat,
		},
		LLM: LLMConfig{
			Provider:       ProviderAnthropic,
			AnthropicModel: defaultAnthropicModel,
			MaxTokens:      defaultMaxTokens,
			Temperature:    defaultTemperature,
			Timeout:        defaultLLMTimeout,
		},
		Batch: BatchConfig{MaxParallel: defaultMaxParallel},
		Leads: LeadsConfig{WebhookTimeout: defaultWebhookTimeout},
	}
}

// Load builds the configuration and validates it. A missing API key is not
// an error here; requests fail with a misconfiguration response instead.
func Load() (Config, error) {
	cfg := Default()

	if path := strings.TrimSpace(os.Getenv("DIVERSS_CONFIG")); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	var errs []error

	switch c.LLM.Provider {
	case ProviderAnthropic, ProviderOpenAI:
	default:
		errs = append(errs, fmt.Errorf("invalid LLM_PROVIDER %q: must be 'anthropic' or 'openai'", c.LLM.Provider))
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("invalid LOG_FORMAT: must be 'json' or 'text'"))
	}
	if c.Server.Port == "" {
		errs = append(errs, errors.New("server port must not be empty"))
	}
	if c.LLM.MaxTokens <= 0 {
		errs = append(errs, errors.New("LLM_MAX_TOKENS must be positive"))
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errs = append(errs, errors.New("LLM_TEMPERATURE must be between 0 and 2"))
	}
	if c.LLM.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("LLM_REQUESTS_PER_MINUTE must not be negative"))
	}
	if c.Batch.MaxParallel <= 0 {
		errs = append(errs, errors.New("BATCH_MAX_PARALLEL must be positive"))
	}

	return errors.Join(errs...)
}

func (c *Config) applyEnv() error {
	// PORT is set by the hosting platform; SERVER_PORT is the local override.
	if v := getEnv("PORT", os.Getenv("SERVER_PORT")); v != "" {
		c.Server.Port = v
	}

	durations := []struct {
		key    string
		target *time.Duration
		unit   time.Duration
	}{
		{"SERVER_READ_TIMEOUT_SECONDS", &c.Server.ReadTimeout, time.Second},
		{"SERVER_WRITE_TIMEOUT_SECONDS", &c.Server.WriteTimeout, time.Second},
		{"SERVER_SHUTDOWN_TIMEOUT_SECONDS", &c.Server.ShutdownTimeout, time.Second},
		{"LLM_TIMEOUT_SECONDS", &c.LLM.Timeout, time.Second},
		{"LEAD_WEBHOOK_TIMEOUT_MS", &c.Leads.WebhookTimeout, time.Millisecond},
	}
	for _, d := range durations {
		if v := os.Getenv(d.key); v != "" {
			parsed, err := parseDuration(v, d.unit)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", d.key, err)
			}
			*d.target = parsed
		}
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		level, err := parseLogLevel(v)
		if err != nil {
			return fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
		c.Logging.Level = level
	}

	strs := map[string]*string{
		"LOG_FORMAT":                &c.Logging.Format,
		"ANTHROPIC_API_KEY":         &c.LLM.AnthropicAPIKey,
		"ANTHROPIC_MODEL":           &c.LLM.AnthropicModel,
		"ANTHROPIC_BASE_URL":        &c.LLM.AnthropicBaseURL,
		"OPENAI_API_KEY":            &c.LLM.OpenAIAPIKey,
		"OPENAI_MODEL":              &c.LLM.OpenAIModel,
		"OPENAI_BASE_URL":           &c.LLM.OpenAIBaseURL,
		"GOOGLE_SHEETS_WEBHOOK_URL": &c.Leads.WebhookURL,
		"DATABASE_URL":              &c.Database.URL,
		"MIGRATIONS_DIR":            &c.Database.MigrationsDir,
		"STATIC_DIR":                &c.Server.StaticDir,
		"INSTANCE_CONNECTION_NAME":  &c.Database.Instance,
		"DB_USER":                   &c.Database.User,
		"DB_PASSWORD":               &c.Database.Password,
		"DB_NAME":                   &c.Database.Name,
	}
	for key, target := range strs {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*target = v
		}
	}
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		c.LLM.Provider = strings.ToLower(strings.TrimSpace(v))
	}

	ints := []struct {
		key    string
		target *int
	}{
		{"LLM_MAX_TOKENS", &c.LLM.MaxTokens},
		{"LLM_REQUESTS_PER_MINUTE", &c.LLM.RequestsPerMinute},
		{"BATCH_MAX_PARALLEL", &c.Batch.MaxParallel},
	}
	for _, i := range ints {
		if v := os.Getenv(i.key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s: must be an integer", i.key)
			}
			*i.target = n
		}
	}

	if v := os.Getenv("LLM_TEMPERATURE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid LLM_TEMPERATURE: must be a number")
		}
		c.LLM.Temperature = f
	}

	return nil
}

func parseDuration(raw string, unit time.Duration) (time.Duration, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("must be a non-negative integer")
	}
	return time.Duration(n) * unit, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseLogLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(raw) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("must be one of debug, info, warn, error")
	}
}

// fileConfig mirrors Config in TOML. Pointer fields distinguish "absent"
// from a zero value.
type fileConfig struct {
	Server struct {
		Port                   *string `toml:"port"`
		ReadTimeoutSeconds     *int    `toml:"read_timeout_seconds"`
		WriteTimeoutSeconds    *int    `toml:"write_timeout_seconds"`
		ShutdownTimeoutSeconds *int    `toml:"shutdown_timeout_seconds"`
		StaticDir              *string `toml:"static_dir"`
	} `toml:"server"`
	Logging struct {
		Level  *string `toml:"level"`
		Format *string `toml:"format"`
	} `toml:"logging"`
	LLM struct {
		Provider          *string  `toml:"provider"`
		MaxTokens         *int     `toml:"max_tokens"`
		Temperature       *float64 `toml:"temperature"`
		TimeoutSeconds    *int     `toml:"timeout_seconds"`
		RequestsPerMinute *int     `toml:"requests_per_minute"`
		Anthropic         struct {
			APIKey  *string `toml:"api_key"`
			Model   *string `toml:"model"`
			BaseURL *string `toml:"base_url"`
		} `toml:"anthropic"`
		OpenAI struct {
			APIKey  *string `toml:"api_key"`
			Model   *string `toml:"model"`
			BaseURL *string `toml:"base_url"`
		} `toml:"openai"`
	} `toml:"llm"`
	Batch struct {
		MaxParallel *int `toml:"max_parallel"`
	} `toml:"batch"`
	Leads struct {
		WebhookURL       *string `toml:"webhook_url"`
		WebhookTimeoutMS *int    `toml:"webhook_timeout_ms"`
	} `toml:"leads"`
	Database struct {
		URL           *string `toml:"url"`
		MigrationsDir *string `toml:"migrations_dir"`
	} `toml:"database"`
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var f fileConfig
	if err := toml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	setString(&c.Server.Port, f.Server.Port)
	setDuration(&c.Server.ReadTimeout, f.Server.ReadTimeoutSeconds, time.Second)
	setDuration(&c.Server.WriteTimeout, f.Server.WriteTimeoutSeconds, time.Second)
	setDuration(&c.Server.ShutdownTimeout, f.Server.ShutdownTimeoutSeconds, time.Second)
	setString(&c.Server.StaticDir, f.Server.StaticDir)

	if f.Logging.Level != nil {
		level, err := parseLogLevel(*f.Logging.Level)
		if err != nil {
			return fmt.Errorf("invalid logging.level: %w", err)
		}
		c.Logging.Level = level
	}
	setString(&c.Logging.Format, f.Logging.Format)

	setString(&c.LLM.Provider, f.LLM.Provider)
	setInt(&c.LLM.MaxTokens, f.LLM.MaxTokens)
	if f.LLM.Temperature != nil {
		c.LLM.Temperature = *f.LLM.Temperature
	}
	setDuration(&c.LLM.Timeout, f.LLM.TimeoutSeconds, time.Second)
	setInt(&c.LLM.RequestsPerMinute, f.LLM.RequestsPerMinute)
	setString(&c.LLM.AnthropicAPIKey, f.LLM.Anthropic.APIKey)
	setString(&c.LLM.AnthropicModel, f.LLM.Anthropic.Model)
	setString(&c.LLM.AnthropicBaseURL, f.LLM.Anthropic.BaseURL)
	setString(&c.LLM.OpenAIAPIKey, f.LLM.OpenAI.APIKey)
	setString(&c.LLM.OpenAIModel, f.LLM.OpenAI.Model)
	setString(&c.LLM.OpenAIBaseURL, f.LLM.OpenAI.BaseURL)

	setInt(&c.Batch.MaxParallel, f.Batch.MaxParallel)
	setString(&c.Leads.WebhookURL, f.Leads.WebhookURL)
	setDuration(&c.Leads.WebhookTimeout, f.Leads.WebhookTimeoutMS, time.Millisecond)
	setString(&c.Database.URL, f.Database.URL)
	setString(&c.Database.MigrationsDir, f.Database.MigrationsDir)

	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *int, unit time.Duration) {
	if v != nil {
		*dst = time.Duration(*v) * unit
	}
}
