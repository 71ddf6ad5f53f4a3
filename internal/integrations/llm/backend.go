package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"labeleval/internal/config"
	"labeleval/internal/domain"
)

const (
	defaultOpenAIModel    = "gpt-4o-mini"
	defaultAnthropicModel = "claude-sonnet-4-5-20250929"
	defaultGeminiModel    = "gemini-1.5-flash"
	defaultMaxTokens      = 512
)

// ErrStructuredUnsupported means the backend cannot constrain output to a
// schema. Callers treat it like any other structural failure.
var ErrStructuredUnsupported = errors.New("structured output not supported by backend")

type Mode int

const (
	ModeStructured Mode = iota
	ModeFreeForm
)

func (m Mode) String() string {
	switch m {
	case ModeStructured:
		return "structured"
	case ModeFreeForm:
		return "free_form"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

type Request struct {
	System    string
	Prompt    string
	Mode      Mode
	Schema    domain.LabelSchema
	MaxTokens int
}

// Usage counts the tokens of one or more calls.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

func (u Usage) TotalTokens() int64 {
	return u.InputTokens + u.OutputTokens
}

func (u *Usage) Add(other Usage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
}

type Response struct {
	Text  string
	Usage Usage
}

// Backend is one classification service. Implementations must be safe for
// concurrent use.
type Backend interface {
	Complete(ctx context.Context, req Request) (Response, error)
	Provider() string
	Model() string
	Close() error
}

// New builds the backend named by cfg.LLMProvider.
func New(ctx context.Context, cfg config.Config) (Backend, error) {
	switch cfg.LLMProvider {
	case config.ProviderOpenAI, "":
		return NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.LLMModel), nil
	case config.ProviderAnthropic:
		return NewAnthropic(cfg.AnthropicAPIKey, cfg.AnthropicBaseURL, cfg.LLMModel), nil
	case config.ProviderGemini:
		return NewGemini(ctx, cfg.GeminiAPIKey, cfg.LLMModel)
	}
	return nil, fmt.Errorf("unknown llm provider %q", cfg.LLMProvider)
}

// StripCodeFence removes a surrounding markdown code fence, if any.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```JSON")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func maxTokens(n int) int {
	if n <= 0 {
		return defaultMaxTokens
	}
	return n
}

func modelOrDefault(model, fallback string) string {
	if strings.TrimSpace(model) == "" {
		return fallback
	}
	return strings.TrimSpace(model)
}
