package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all runtime settings, loaded from the environment.
type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// LLMProvider selects the AI collaborator: "anthropic", "openai",
	// "ollama", or "mock".
	LLMProvider     string `envconfig:"LLM_PROVIDER" default:"anthropic"`
	AnthropicAPIKey string `envconfig:"ANTHROPIC_API_KEY"`
	OpenAIAPIKey    string `envconfig:"OPENAI_API_KEY"`
	OllamaURL       string `envconfig:"OLLAMA_URL" default:"http://localhost:11434"`
	ModelName       string `envconfig:"MODEL_NAME"`

	// RedisURL is optional. Empty disables persistence.
	RedisURL string `envconfig:"REDIS_URL"`

	// HistoryLimit is the number of recent messages kept out of the
	// cacheable prompt prefix.
	HistoryLimit int `envconfig:"HISTORY_LIMIT" default:"10"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// Validate checks that the selected provider has what it needs.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LLMProvider) {
	case "anthropic":
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required when LLM_PROVIDER=anthropic")
		}
	case "openai":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when LLM_PROVIDER=openai")
		}
	case "ollama":
		if c.OllamaURL == "" {
			return fmt.Errorf("OLLAMA_URL is required when LLM_PROVIDER=ollama")
		}
		if c.ModelName == "" {
			return fmt.Errorf("MODEL_NAME is required when LLM_PROVIDER=ollama")
		}
	case "mock":
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider)
	}
	return nil
}

// SlogLevel maps the configured level string to a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
