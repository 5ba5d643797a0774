// Package llm provides chat access to language model backends.
package llm

import (
	"context"
	"encoding/json"
	"fmt"

	appConfig "github.com/zpr-ai/zpr/internal/config"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Response is the model's reply.
type Response struct {
	Content string `json:"content"`
}

// Provider sends chat requests to a language model backend.
type Provider interface {
	// Chat sends a plain chat request.
	Chat(ctx context.Context, model string, messages []Message) (*Response, error)

	// ChatWithSchema sends a chat request whose reply must conform to the
	// given JSON schema.
	ChatWithSchema(ctx context.Context, model string, messages []Message, schema json.RawMessage) (*Response, error)
}

// New constructs a provider from configuration.
func New(cfg appConfig.LLMConfig) (Provider, error) {
	switch cfg.Provider {
	case appConfig.LLMProviderOpenAI:
		return NewOpenAI(cfg.BaseURL, cfg.APIKey), nil
	case appConfig.LLMProviderOllama:
		return NewOllama(cfg.BaseURL)
	default:
		return nil, fmt.Errorf("invalid llm provider type: %s", cfg.Provider)
	}
}
