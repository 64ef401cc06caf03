// Package config reads service and client settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
)

type LLMProvider string

const (
	ProviderAnthropic LLMProvider = "anthropic"
	ProviderOpenAI    LLMProvider = "openai"
	ProviderGemini    LLMProvider = "gemini"
)

type Config struct {
	// HTTP server
	HTTPAddr         string        `env:"HTTP_ADDR" envDefault:":8080"`
	HTTPReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"10s"`
	HTTPWriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"90s"`
	APIDebug         bool          `env:"API_DEBUG"`

	// LLM settings
	LLMProvider      LLMProvider   `env:"LLM_PROVIDER" envDefault:"anthropic"`
	AnthropicAPIKey  string        `env:"ANTHROPIC_API_KEY"`
	AnthropicBaseURL string        `env:"ANTHROPIC_BASE_URL"`
	AnthropicModel   string        `env:"ANTHROPIC_MODEL" envDefault:"claude-3-5-sonnet-20241022"`
	OpenAIAPIKey     string        `env:"OPENAI_API_KEY"`
	OpenAIBaseURL    string        `env:"OPENAI_BASE_URL"`
	OpenAIModel      string        `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	GeminiAPIKey     string        `env:"GEMINI_API_KEY"`
	GeminiModel      string        `env:"GEMINI_MODEL" envDefault:"gemini-2.0-flash"`
	LLMTimeout       time.Duration `env:"LLM_TIMEOUT" envDefault:"60s"`
	GenerateTips     bool          `env:"GENERATE_TIPS" envDefault:"true"`

	// Storage
	DatabaseURL         string `env:"DATABASE_URL" envDefault:"file:excuses.db?cache=shared"`
	DatabaseDriver      string `env:"DATABASE_DRIVER" envDefault:"pg"`
	DatabaseAutoMigrate bool   `env:"DATABASE_AUTO_MIGRATE" envDefault:"true"`

	// Leaderboard cache, disabled when RedisAddr is empty
	RedisAddr        string        `env:"REDIS_ADDR"`
	RedisPassword    string        `env:"REDIS_PASSWORD"`
	RedisDB          int           `env:"REDIS_DB"`
	CacheTTL         time.Duration `env:"CACHE_TTL" envDefault:"30s"`
	CacheRefreshSpec string        `env:"CACHE_REFRESH_SPEC" envDefault:"@every 10s"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
}

// New parses the environment into a Config.
func New() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	switch cfg.LLMProvider {
	case ProviderAnthropic, ProviderOpenAI, ProviderGemini:
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.LLMProvider)
	}
	switch cfg.DatabaseDriver {
	case "pg", "pgx":
	default:
		return nil, fmt.Errorf("unknown database driver: %s", cfg.DatabaseDriver)
	}
	return cfg, nil
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
