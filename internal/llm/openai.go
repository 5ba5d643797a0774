package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// OpenAI is a Provider over an OpenAI-compatible chat completions endpoint.
type OpenAI struct {
	client *openai.Client
}

// NewOpenAI creates an OpenAI provider. apiKey may be empty for
// unauthenticated endpoints.
func NewOpenAI(baseURL, apiKey string) *OpenAI {
	options := []option.RequestOption{option.WithBaseURL(baseURL)}
	if apiKey != "" {
		options = append(options, option.WithAPIKey(apiKey))
	}

	client := openai.NewClient(options...)
	return &OpenAI{client: &client}
}

// Chat sends a plain chat request.
func (p *OpenAI) Chat(ctx context.Context, model string, messages []Message) (*Response, error) {
	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(model),
		Messages:    toOpenAIMessages(messages),
		Temperature: openai.Float(0.2),
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("model returned no content choices")
	}
	return &Response{Content: resp.Choices[0].Message.Content}, nil
}

// ChatWithSchema sends a chat request constrained by a JSON schema via the
// json_schema response format.
func (p *OpenAI) ChatWithSchema(
	ctx context.Context,
	model string,
	messages []Message,
	schema json.RawMessage,
) (*Response, error) {
	var schemaObj any
	if err := json.Unmarshal(schema, &schemaObj); err != nil {
		return nil, fmt.Errorf("invalid response schema: %w", err)
	}

	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(model),
		Messages:    toOpenAIMessages(messages),
		Temperature: openai.Float(0.2),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   "response",
					Schema: schemaObj,
				},
			},
		},
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("model returned no content choices")
	}
	return &Response{Content: resp.Choices[0].Message.Content}, nil
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
