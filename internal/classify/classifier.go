package classify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"labeleval/internal/domain"
	"labeleval/internal/integrations/llm"
	"labeleval/internal/labels"

	"github.com/sirupsen/logrus"
)

const (
	DefaultMaxAttempts  = 2
	DefaultPromptBudget = 800

	DefaultSystemPrompt = "You are a meticulous classifier of e-commerce customer-service chats. " +
		"Label each conversation by meaning and intent only. " +
		"Reply with a single structured object and never write out your reasoning."

	fallbackHeader = "\n\nReturn exactly one JSON object on a single line, and nothing else. " +
		"Copy every value exactly from the allowed values of its key:"
)

// State is the per-conversation classification state.
type State int

const (
	StatePending State = iota
	StatePrimaryAttempted
	StateFallbackAttempted
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StatePrimaryAttempted:
		return "primary_attempted"
	case StateFallbackAttempted:
		return "fallback_attempted"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Trace is the state sequence and attempts of one Classify call. Usage sums
// every attempt, failed ones included.
type Trace struct {
	States   []State
	Attempts []AttemptEvent
	Usage    llm.Usage
}

func (t Trace) Final() State {
	if len(t.States) == 0 {
		return StatePending
	}
	return t.States[len(t.States)-1]
}

type Options struct {
	System       string
	MaxAttempts  int
	PromptBudget int
	MaxTokens    int
	CallTimeout  time.Duration
	RunID        string
	Recorder     Recorder
	Log          logrus.FieldLogger
}

type Classifier struct {
	backend   llm.Backend
	template  *Template
	validator *labels.Validator
	schema    domain.LabelSchema
	fallback  string
	opts      Options
}

func NewClassifier(backend llm.Backend, tmpl *Template, validator *labels.Validator, opts Options) *Classifier {
	if opts.System == "" {
		opts.System = DefaultSystemPrompt
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.PromptBudget <= 0 {
		opts.PromptBudget = DefaultPromptBudget
	}
	if opts.Log == nil {
		opts.Log = logrus.StandardLogger()
	}
	schema := validator.Schema()
	return &Classifier{
		backend:   backend,
		template:  tmpl,
		validator: validator,
		schema:    schema,
		fallback:  fallbackInstruction(schema),
		opts:      opts,
	}
}

// fallbackInstruction spells the schema out in text for backends that only
// see the prompt.
func fallbackInstruction(schema domain.LabelSchema) string {
	var sb strings.Builder
	sb.WriteString(fallbackHeader)
	for _, f := range schema.Fields {
		sb.WriteString("\n- ")
		sb.WriteString(f.Name)
		sb.WriteString(": ")
		if len(f.Enum) == 0 {
			sb.WriteString("any non-empty text")
			continue
		}
		sb.WriteString(strings.Join(f.Enum, " | "))
	}
	return sb.String()
}

func (c *Classifier) Model() string { return c.backend.Model() }

// Classify runs primary then fallback up to MaxAttempts rounds. Exhaustion
// returns *IrrecoverableError; context cancellation is returned as is.
func (c *Classifier) Classify(ctx context.Context, conv domain.Conversation) (domain.Prediction, Trace, error) {
	prompt := c.template.Render(conv.DialogText)
	trace := Trace{States: []State{StatePending}}

	var lastErr error
	for round := 1; round <= c.opts.MaxAttempts; round++ {
		trace.States = append(trace.States, StatePrimaryAttempted)
		req := llm.Request{System: c.opts.System, Prompt: prompt, Mode: llm.ModeStructured, Schema: c.schema, MaxTokens: c.opts.MaxTokens}
		assignment, raw, err := c.attempt(ctx, conv.ID, round, PhasePrimary, req, &trace)
		if err == nil {
			return c.succeed(conv.ID, prompt, assignment, raw, trace)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.Prediction{}, trace, ctxErr
		}
		lastErr = err

		trace.States = append(trace.States, StateFallbackAttempted)
		req.Mode = llm.ModeFreeForm
		req.Prompt = prompt + c.fallback
		assignment, raw, err = c.attempt(ctx, conv.ID, round, PhaseFallback, req, &trace)
		if err == nil {
			return c.succeed(conv.ID, prompt, assignment, raw, trace)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.Prediction{}, trace, ctxErr
		}
		lastErr = err
	}

	trace.States = append(trace.States, StateFailed)
	return domain.Prediction{}, trace, &IrrecoverableError{
		ConversationID: conv.ID,
		Model:          c.backend.Model(),
		Cause:          lastErr,
	}
}

func (c *Classifier) succeed(id, prompt string, assignment domain.LabelAssignment, raw string, trace Trace) (domain.Prediction, Trace, error) {
	trace.States = append(trace.States, StateSucceeded)
	return domain.Prediction{
		ConversationID: id,
		Labels:         assignment,
		PromptUsed:     truncateRunes(prompt, c.opts.PromptBudget),
		RawOutput:      raw,
	}, trace, nil
}

func (c *Classifier) attempt(ctx context.Context, id string, round int, phase Phase, req llm.Request, trace *Trace) (domain.LabelAssignment, string, error) {
	callCtx := ctx
	if c.opts.CallTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.opts.CallTimeout)
		defer cancel()
	}

	started := time.Now()
	resp, err := c.backend.Complete(callCtx, req)
	event := AttemptEvent{
		RunID:          c.opts.RunID,
		ConversationID: id,
		Round:          round,
		Phase:          phase,
		RawText:        resp.Text,
		Provider:       c.backend.Provider(),
		Model:          c.backend.Model(),
		InputTokens:    resp.Usage.InputTokens,
		OutputTokens:   resp.Usage.OutputTokens,
		At:             started,
	}

	var assignment domain.LabelAssignment
	var raw string
	if err == nil {
		assignment, raw, err = c.interpret(phase, resp.Text)
	}
	event.Duration = time.Since(started)
	event.Outcome = OutcomeOK
	if err != nil {
		event.Outcome = OutcomeError
		event.Error = err.Error()
	}
	trace.Attempts = append(trace.Attempts, event)
	trace.Usage.Add(resp.Usage)
	if c.opts.Recorder != nil {
		c.opts.Recorder.RecordAttempt(event)
	}

	entry := c.opts.Log.WithFields(logrus.Fields{
		"conversation_id": id,
		"attempt":         round,
		"phase":           string(phase),
		"model":           event.Model,
	})
	if err != nil {
		if errors.Is(err, llm.ErrStructuredUnsupported) {
			entry.Debug("classify structured mode unsupported, falling back")
		} else {
			entry.WithError(err).Warn("classify attempt failed")
		}
		return domain.LabelAssignment{}, "", err
	}
	entry.WithField("duration_ms", event.Duration.Milliseconds()).Debug("classify attempt succeeded")
	return assignment, raw, nil
}

func (c *Classifier) interpret(phase Phase, text string) (domain.LabelAssignment, string, error) {
	text = llm.StripCodeFence(text)
	var (
		obj map[string]any
		err error
	)
	if phase == PhasePrimary {
		obj, err = decodeObject(text)
	} else {
		obj, err = ExtractJSONObject(text)
	}
	if err != nil {
		return domain.LabelAssignment{}, "", err
	}
	assignment, err := c.validator.Validate(obj)
	if err != nil {
		return domain.LabelAssignment{}, "", err
	}
	raw, err := encodeJSON.MarshalToString(obj)
	if err != nil {
		return domain.LabelAssignment{}, "", fmt.Errorf("%w: re-encode result: %v", domain.ErrStructural, err)
	}
	return assignment, raw, nil
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit]) + "…"
}
