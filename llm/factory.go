package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/edgeee/excuse-generator/config"
)

// placeholders are the example values shipped in .env.example. A key equal to
// one of them counts as missing.
var placeholders = map[string]bool{
	"your_claude_api_key_here":    true,
	"your_anthropic_api_key_here": true,
	"your_openai_api_key_here":    true,
	"your_gemini_api_key_here":    true,
	"your_api_key_here":           true,
}

// IsPlaceholder reports whether key is empty or one of the known example values.
func IsPlaceholder(key string) bool {
	key = strings.TrimSpace(key)
	return key == "" || placeholders[strings.ToLower(key)]
}

// Factory creates LLM clients with consistent logic
type Factory struct {
	Provider config.LLMProvider

	AnthropicAPIKey  string
	AnthropicBaseURL string
	AnthropicModel   string
	OpenAIAPIKey     string
	OpenAIBaseURL    string
	OpenAIModel      string
	GeminiAPIKey     string
	GeminiModel      string

	HTTPClient *http.Client
}

func NewFactory(cfg *config.Config) *Factory {
	return &Factory{
		Provider:         cfg.LLMProvider,
		AnthropicAPIKey:  cfg.AnthropicAPIKey,
		AnthropicBaseURL: cfg.AnthropicBaseURL,
		AnthropicModel:   cfg.AnthropicModel,
		OpenAIAPIKey:     cfg.OpenAIAPIKey,
		OpenAIBaseURL:    cfg.OpenAIBaseURL,
		OpenAIModel:      cfg.OpenAIModel,
		GeminiAPIKey:     cfg.GeminiAPIKey,
		GeminiModel:      cfg.GeminiModel,
	}
}

// CreateClient returns the client for the configured provider, or
// ErrNotConfigured when its credential is missing or a placeholder. No
// request is sent to the provider.
func (f *Factory) CreateClient(ctx context.Context) (Client, error) {
	switch f.Provider {
	case config.ProviderAnthropic, "":
		if IsPlaceholder(f.AnthropicAPIKey) {
			return nil, ErrNotConfigured
		}
		return NewAnthropic(f.AnthropicAPIKey, f.AnthropicBaseURL, f.AnthropicModel, f.HTTPClient), nil
	case config.ProviderOpenAI:
		if IsPlaceholder(f.OpenAIAPIKey) {
			return nil, ErrNotConfigured
		}
		return NewOpenAI(f.OpenAIAPIKey, f.OpenAIBaseURL, f.OpenAIModel, f.HTTPClient), nil
	case config.ProviderGemini:
		if IsPlaceholder(f.GeminiAPIKey) {
			return nil, ErrNotConfigured
		}
		return NewGemini(ctx, f.GeminiAPIKey, f.GeminiModel)
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", f.Provider)
	}
}
