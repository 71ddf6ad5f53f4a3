package llm

import (
	"context"
	"fmt"
	"strings"

	"labeleval/internal/httpx"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

type anthropicBackend struct {
	client anthropic.Client
	model  string
}

// NewAnthropic serves free-form requests only.
func NewAnthropic(apiKey, baseURL, model string) Backend {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(httpx.ExternalHTTPClient()),
	}
	if strings.TrimSpace(baseURL) != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimSpace(baseURL)))
	}
	return &anthropicBackend{
		client: anthropic.NewClient(opts...),
		model:  modelOrDefault(model, defaultAnthropicModel),
	}
}

func (b *anthropicBackend) Provider() string { return "anthropic" }
func (b *anthropicBackend) Model() string    { return b.model }
func (b *anthropicBackend) Close() error     { return nil }

func (b *anthropicBackend) Complete(ctx context.Context, req Request) (Response, error) {
	if req.Mode == ModeStructured {
		return Response{}, ErrStructuredUnsupported
	}

	message, err := b.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(b.model),
		MaxTokens: int64(maxTokens(req.MaxTokens)),
		System: []anthropic.TextBlockParam{
			{Text: req.System, CacheControl: anthropic.NewCacheControlEphemeralParam()},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	})
	if err != nil {
		return Response{}, fmt.Errorf("anthropic request: %w", err)
	}
	usage := Usage{
		InputTokens:  message.Usage.InputTokens,
		OutputTokens: message.Usage.OutputTokens,
	}
	for _, block := range message.Content {
		if block.Type == "text" {
			return Response{Text: StripCodeFence(block.Text), Usage: usage}, nil
		}
	}
	return Response{Usage: usage}, fmt.Errorf("no text content in anthropic response")
}
