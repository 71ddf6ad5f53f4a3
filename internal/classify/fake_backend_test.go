package classify

import (
	"context"
	"errors"
	"strings"
	"sync"

	"labeleval/internal/integrations/llm"
)

type scriptedReply struct {
	text string
	err  error
}

// fakeBackend replays scripted replies per prompt mode, then repeats the
// last one. byDialog, when set, overrides the script for prompts containing a key.
type fakeBackend struct {
	mu         sync.Mutex
	structured []scriptedReply
	freeForm   []scriptedReply
	byDialog   map[string]scriptedReply
	requests   []llm.Request
}

func (f *fakeBackend) Provider() string { return "fake" }
func (f *fakeBackend) Model() string    { return "fake-model" }
func (f *fakeBackend) Close() error     { return nil }

func (f *fakeBackend) Complete(ctx context.Context, req llm.Request) (llm.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if err := ctx.Err(); err != nil {
		return llm.Response{}, err
	}
	for key, reply := range f.byDialog {
		if strings.Contains(req.Prompt, key) {
			return llm.Response{Text: reply.text}, reply.err
		}
	}
	script := &f.structured
	if req.Mode == llm.ModeFreeForm {
		script = &f.freeForm
	}
	if len(*script) == 0 {
		return llm.Response{}, errors.New("no scripted reply")
	}
	reply := (*script)[0]
	if len(*script) > 1 {
		*script = (*script)[1:]
	}
	return llm.Response{Text: reply.text, Usage: llm.Usage{InputTokens: 10, OutputTokens: 5}}, reply.err
}

func (f *fakeBackend) calls() []llm.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]llm.Request(nil), f.requests...)
}
