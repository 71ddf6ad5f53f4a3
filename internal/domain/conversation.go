package domain

import "time"

// Conversation is one normalized customer-service dialogue.
type Conversation struct {
	ID              string
	DialogText      string
	StartTime       *time.Time
	EndTime         *time.Time
	DurationSeconds *int64
	// Gold holds ground-truth labels; a missing category has no key.
	Gold map[Category]string
}

// GoldValue returns the gold label for c and whether it is present.
func (c Conversation) GoldValue(cat Category) (string, bool) {
	v, ok := c.Gold[cat]
	return v, ok
}

// LabelAssignment is one complete classification result. It is only built by
// the label validator, so every field is non-empty and within its vocabulary.
type LabelAssignment struct {
	ResponseStatus ResponseStatus    `json:"response_status" validate:"required,fixed_enum"`
	Sentiment      Sentiment         `json:"sentiment" validate:"required,fixed_enum"`
	CategoryType   CategoryTypeValue `json:"category_type" validate:"required,fixed_enum"`
	Intent         string            `json:"intent" validate:"required,intent_vocab"`
	IntentDetail   string            `json:"intent_detail" validate:"required,intent_detail_vocab"`
}

// Value returns the label string for a category.
func (l LabelAssignment) Value(c Category) string {
	switch c {
	case CategoryResponseStatus:
		return string(l.ResponseStatus)
	case CategorySentiment:
		return string(l.Sentiment)
	case CategoryType:
		return string(l.CategoryType)
	case CategoryIntent:
		return l.Intent
	case CategoryIntentDetail:
		return l.IntentDetail
	}
	return ""
}

// Map returns the assignment keyed by category.
func (l LabelAssignment) Map() map[Category]string {
	out := make(map[Category]string, len(categories))
	for _, c := range categories {
		out[c] = l.Value(c)
	}
	return out
}

// Prediction is a persisted classification row.
type Prediction struct {
	ConversationID string
	Labels         LabelAssignment
	PromptUsed     string
	RawOutput      string
}
