package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"labeleval/internal/domain"
	"labeleval/internal/httpx"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

type geminiBackend struct {
	client *genai.Client
	model  string
}

func NewGemini(ctx context.Context, apiKey, model string) (Backend, error) {
	client, err := genai.NewClient(ctx,
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(geminiHTTPClient(httpx.ExternalHTTPClient(), apiKey)),
	)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &geminiBackend{
		client: client,
		model:  modelOrDefault(model, defaultGeminiModel),
	}, nil
}

// apiKeyTransport authenticates requests itself because a caller-supplied
// http.Client bypasses the SDK's key handling.
type apiKeyTransport struct {
	key  string
	base http.RoundTripper
}

func (t *apiKeyTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.Header.Set("x-goog-api-key", t.key)
	return t.base.RoundTrip(r)
}

// geminiHTTPClient keeps the shared client's timeout and transport.
func geminiHTTPClient(shared *http.Client, apiKey string) *http.Client {
	base := shared.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	return &http.Client{
		Timeout:   shared.Timeout,
		Transport: &apiKeyTransport{key: apiKey, base: base},
	}
}

func (b *geminiBackend) Provider() string { return "gemini" }
func (b *geminiBackend) Model() string    { return b.model }
func (b *geminiBackend) Close() error     { return b.client.Close() }

func (b *geminiBackend) Complete(ctx context.Context, req Request) (Response, error) {
	model := b.client.GenerativeModel(b.model)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	model.SetMaxOutputTokens(int32(maxTokens(req.MaxTokens)))
	model.SetTemperature(0)
	model.ResponseMIMEType = "application/json"
	if req.Mode == ModeStructured {
		model.ResponseSchema = geminiSchema(req.Schema)
	}

	res, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return Response{}, fmt.Errorf("gemini %s request: %w", req.Mode, err)
	}
	var usage Usage
	if res.UsageMetadata != nil {
		usage.InputTokens = int64(res.UsageMetadata.PromptTokenCount)
		usage.OutputTokens = int64(res.UsageMetadata.CandidatesTokenCount)
	}
	if len(res.Candidates) == 0 || res.Candidates[0].Content == nil {
		return Response{Usage: usage}, fmt.Errorf("no response from gemini")
	}
	var sb strings.Builder
	for _, part := range res.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return Response{Usage: usage}, fmt.Errorf("unexpected response format from gemini")
	}
	return Response{Text: StripCodeFence(sb.String()), Usage: usage}, nil
}

func geminiSchema(s domain.LabelSchema) *genai.Schema {
	props := make(map[string]*genai.Schema, len(s.Fields))
	for _, f := range s.Fields {
		props[f.Name] = &genai.Schema{
			Type:        genai.TypeString,
			Format:      "enum",
			Description: f.Description,
			Enum:        f.Enum,
		}
	}
	return &genai.Schema{
		Type:       genai.TypeObject,
		Properties: props,
		Required:   s.FieldNames(),
	}
}
