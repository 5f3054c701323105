// Package config defines environment configuration structs and loaders.
package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

type AppConfig struct {
	GeminiEnvConfig
	OpenAIEnvConfig
	ClientEnvConfig
	OutputEnvConfig

	Provider    string `env:"GENAPP_PROVIDER, default=gemini"`
	Environment string `env:"ENVIRONMENT, default=prod"`
}

// LoadConfig reads the application configuration from the process environment.
func LoadConfig(ctx context.Context) (*AppConfig, error) {
	return LoadConfigWith(ctx, envconfig.OsLookuper())
}

// LoadConfigWith reads the application configuration from the given lookuper.
func LoadConfigWith(ctx context.Context, l envconfig.Lookuper) (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   cfg,
		Lookuper: l,
	}); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that cannot be defaulted. API keys are not
// checked here; a missing key surfaces as an upstream authentication error.
func (c *AppConfig) Validate() error {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	switch c.Provider {
	case ProviderGemini, ProviderOpenAI:
	default:
		return fmt.Errorf("unknown provider %q, must be %q or %q", c.Provider, ProviderGemini, ProviderOpenAI)
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		return fmt.Errorf("output directory cannot be empty")
	}
	return nil
}

// GeminiEnvConfig holds the Gemini generateContent endpoint settings.
type GeminiEnvConfig struct {
	GeminiAPIKey  string `env:"GEMINI_API_KEY"`
	GeminiBaseURL string `env:"GEMINI_BASE_URL, default=https://generativelanguage.googleapis.com"`
	GeminiModel   string `env:"GEMINI_MODEL, default=gemini-2.5-flash"`
}

// OpenAIEnvConfig holds the settings for an OpenAI-compatible chat endpoint.
type OpenAIEnvConfig struct {
	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL, default=https://api.openai.com/v1"`
	OpenAIModel   string `env:"OPENAI_MODEL, default=gpt-4o-mini"`
}

// ClientEnvConfig configures the client. A zero timeout means none.
type ClientEnvConfig struct {
	ClientTimeout time.Duration `env:"CLIENT_TIMEOUT"`
}

// OutputEnvConfig configures where generated files land.
type OutputEnvConfig struct {
	OutputDir string `env:"GENAPP_OUTPUT_DIR, default=generated-code"`
}
