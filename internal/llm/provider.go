package llm

import (
	"context"
	"net/http"

	"github.com/af-corp/aegis-docai/internal/config"
	"github.com/af-corp/aegis-docai/internal/types"
)

// Provider speaks one upstream HTTP protocol. Providers build requests and parse
// bodies; sending, timeouts and retries belong to Client.
type Provider interface {
	Name() string
	NewRequest(ctx context.Context, req types.LLMRequest) (*http.Request, error)
	// ParseResponse extracts the completion text and model name from a 200 body.
	// It returns a *Error of kind KindDecode or KindEmpty on failure.
	ParseResponse(body []byte) (text string, model string, err error)
}

// newProvider selects the provider variant for cfg. It returns nil for the mock mode.
func newProvider(cfg config.LLMConfig) Provider {
	switch cfg.Provider {
	case config.ProviderOllama, config.ProviderGenerate:
		return &generateProvider{baseURL: cfg.BaseURL, apiKey: cfg.APIKey, model: cfg.Model}
	case config.ProviderOpenAICompatible, config.ProviderChat:
		return &chatProvider{baseURL: cfg.BaseURL, apiKey: cfg.APIKey, model: cfg.Model}
	default:
		return nil
	}
}
