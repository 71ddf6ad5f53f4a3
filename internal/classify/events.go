package classify

import (
	"sync"
	"time"
)

type Phase string

const (
	PhasePrimary  Phase = "primary"
	PhaseFallback Phase = "fallback"
)

const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// AttemptEvent describes one backend call and what became of its output.
type AttemptEvent struct {
	RunID          string        `json:"run_id,omitempty"`
	ConversationID string        `json:"conversation_id"`
	Round          int           `json:"attempt"`
	Phase          Phase         `json:"phase"`
	Outcome        string        `json:"outcome"`
	Error          string        `json:"error,omitempty"`
	RawText        string        `json:"raw_text,omitempty"`
	Provider       string        `json:"provider"`
	Model          string        `json:"model"`
	InputTokens    int64         `json:"input_tokens"`
	OutputTokens   int64         `json:"output_tokens"`
	Duration       time.Duration `json:"duration_ns"`
	At             time.Time     `json:"at"`
}

// Recorder observes attempts. Implementations must be safe for concurrent use.
type Recorder interface {
	RecordAttempt(AttemptEvent)
}

type RecorderFunc func(AttemptEvent)

func (f RecorderFunc) RecordAttempt(e AttemptEvent) { f(e) }

// Recorders fans one event out to several recorders; nil entries are skipped.
func Recorders(rs ...Recorder) Recorder {
	return RecorderFunc(func(e AttemptEvent) {
		for _, r := range rs {
			if r != nil {
				r.RecordAttempt(e)
			}
		}
	})
}

// EventLog keeps every attempt in memory for the audit file.
type EventLog struct {
	mu     sync.Mutex
	events []AttemptEvent
}

func (l *EventLog) RecordAttempt(e AttemptEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *EventLog) Events() []AttemptEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]AttemptEvent, len(l.events))
	copy(out, l.events)
	return out
}
