package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
)

// Ollama is a Provider over a local Ollama server.
type Ollama struct {
	client *api.Client
}

// NewOllama creates an Ollama provider for the given host URL.
func NewOllama(baseURL string) (*Ollama, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama base URL: %w", err)
	}
	return &Ollama{client: api.NewClient(u, http.DefaultClient)}, nil
}

// Chat sends a plain chat request.
func (p *Ollama) Chat(ctx context.Context, model string, messages []Message) (*Response, error) {
	return p.chat(ctx, model, messages, nil)
}

// ChatWithSchema sends a chat request whose reply is constrained to the
// given JSON schema via Ollama's structured output format.
func (p *Ollama) ChatWithSchema(
	ctx context.Context,
	model string,
	messages []Message,
	schema json.RawMessage,
) (*Response, error) {
	return p.chat(ctx, model, messages, schema)
}

func (p *Ollama) chat(
	ctx context.Context,
	model string,
	messages []Message,
	format json.RawMessage,
) (*Response, error) {
	stream := false
	req := &api.ChatRequest{
		Model:    model,
		Messages: toOllamaMessages(messages),
		Stream:   &stream,
		Format:   format,
		Options: map[string]interface{}{
			"temperature": 0.2,
		},
	}

	var content strings.Builder
	err := p.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &Response{Content: content.String()}, nil
}

func toOllamaMessages(messages []Message) []api.Message {
	out := make([]api.Message, 0, len(messages))
	for _, m := range messages {
		out = append(out, api.Message{Role: m.Role, Content: m.Content})
	}
	return out
}
