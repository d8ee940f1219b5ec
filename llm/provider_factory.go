package llm

import (
	"context"
	"fmt"
	"strings"
)

// ProviderFactory creates providers from a model name or an explicit provider choice
type ProviderFactory struct {
	openaiAPIKey string
	geminiAPIKey string
}

// NewProviderFactory creates a new provider factory
func NewProviderFactory(openaiAPIKey, geminiAPIKey string) *ProviderFactory {
	return &ProviderFactory{
		openaiAPIKey: openaiAPIKey,
		geminiAPIKey: geminiAPIKey,
	}
}

// GetProvider returns the provider for providerName, or infers it from model when empty.
// Unknown models go to OpenAI.
func (f *ProviderFactory) GetProvider(ctx context.Context, model, providerName string) (Provider, error) {
	name := strings.ToLower(providerName)
	if name == "" {
		name = ProviderForModel(model)
	}

	switch name {
	case providerNameOpenAI:
		if f.openaiAPIKey == "" {
			return nil, fmt.Errorf("openai API key not configured")
		}
		return NewOpenAIProvider(f.openaiAPIKey), nil

	case providerNameGemini:
		if f.geminiAPIKey == "" {
			return nil, fmt.Errorf("gemini API key not configured")
		}
		provider, err := NewGeminiProvider(ctx, f.geminiAPIKey)
		if err != nil {
			return nil, err
		}
		return provider, nil

	default:
		return nil, fmt.Errorf("unknown provider: %s (allowed: openai, gemini)", providerName)
	}
}

// ProviderForModel maps a model name to the provider that serves it
func ProviderForModel(model string) string {
	m := strings.ToLower(strings.TrimPrefix(model, "models/"))
	if strings.HasPrefix(m, "gemini-") {
		return providerNameGemini
	}
	return providerNameOpenAI
}
