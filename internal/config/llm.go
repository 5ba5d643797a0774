package config

import "fmt"

// LLM provider types selectable via LLM_PROVIDER.
const (
	LLMProviderOpenAI = "openai"
	LLMProviderOllama = "ollama"
)

// LLMConfig holds language model provider configuration.
type LLMConfig struct {
	// Provider selects the chat implementation (openai, ollama).
	Provider string
	// BaseURL is the provider endpoint.
	BaseURL string
	// APIKey authenticates against the provider. Optional for local models.
	APIKey string
}

// LoadLLMConfigFromEnv loads LLM configuration from environment variables.
func LoadLLMConfigFromEnv() LLMConfig {
	return LLMConfig{
		Provider: GetEnv("LLM_PROVIDER", LLMProviderOpenAI),
		BaseURL:  GetEnv("LLM_BASE_URL", ""),
		APIKey:   GetEnv("LLM_API_KEY", ""),
	}
}

// Validate validates LLM configuration.
func (c LLMConfig) Validate() error {
	if c.Provider != LLMProviderOpenAI && c.Provider != LLMProviderOllama {
		return fmt.Errorf("invalid LLM_PROVIDER: %s (must be: openai, ollama)", c.Provider)
	}
	if c.BaseURL == "" {
		return fmt.Errorf("LLM_BASE_URL is required")
	}
	return nil
}
