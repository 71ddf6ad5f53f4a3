package llm

import (
	"context"
	"fmt"
	"strings"

	"labeleval/internal/domain"
	"labeleval/internal/httpx"

	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
)

type openAIBackend struct {
	client *openai.Client
	model  string
}

// NewOpenAI talks to the chat completions API, or any compatible endpoint
// when baseURL is set.
func NewOpenAI(apiKey, baseURL, model string) Backend {
	cfg := openai.DefaultConfig(apiKey)
	if strings.TrimSpace(baseURL) != "" {
		cfg.BaseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	}
	cfg.HTTPClient = httpx.ExternalHTTPClient()
	return &openAIBackend{
		client: openai.NewClientWithConfig(cfg),
		model:  modelOrDefault(model, defaultOpenAIModel),
	}
}

func (b *openAIBackend) Provider() string { return "openai" }
func (b *openAIBackend) Model() string    { return b.model }
func (b *openAIBackend) Close() error     { return nil }

func (b *openAIBackend) Complete(ctx context.Context, req Request) (Response, error) {
	chat := openai.ChatCompletionRequest{
		Model: b.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		MaxCompletionTokens: maxTokens(req.MaxTokens),
	}
	switch req.Mode {
	case ModeStructured:
		chat.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   req.Schema.Name,
				Schema: openAISchema(req.Schema),
				Strict: true,
			},
		}
	default:
		chat.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := b.client.CreateChatCompletion(ctx, chat)
	if err != nil {
		return Response{}, fmt.Errorf("openai %s request: %w", req.Mode, err)
	}
	usage := Usage{
		InputTokens:  int64(resp.Usage.PromptTokens),
		OutputTokens: int64(resp.Usage.CompletionTokens),
	}
	if len(resp.Choices) == 0 {
		return Response{Usage: usage}, fmt.Errorf("openai response has no choices")
	}
	msg := resp.Choices[0].Message
	if msg.Refusal != "" {
		return Response{Usage: usage}, fmt.Errorf("openai refused: %s", msg.Refusal)
	}
	return Response{Text: strings.TrimSpace(msg.Content), Usage: usage}, nil
}

func openAISchema(s domain.LabelSchema) *jsonschema.Definition {
	props := make(map[string]jsonschema.Definition, len(s.Fields))
	for _, f := range s.Fields {
		props[f.Name] = jsonschema.Definition{
			Type:        jsonschema.String,
			Description: f.Description,
			Enum:        f.Enum,
		}
	}
	return &jsonschema.Definition{
		Type:                 jsonschema.Object,
		Properties:           props,
		Required:             s.FieldNames(),
		AdditionalProperties: false,
	}
}
