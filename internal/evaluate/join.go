package evaluate

import (
	"strings"

	"labeleval/internal/domain"
)

// Row is one gold conversation and its prediction, if any.
type Row struct {
	Conversation domain.Conversation
	Prediction   *domain.Prediction
}

// Gold returns the gold label for c; empty labels count as missing.
func (r Row) Gold(c domain.Category) (string, bool) {
	v, ok := r.Conversation.GoldValue(c)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

// Pred returns the predicted label for c; empty labels count as missing.
func (r Row) Pred(c domain.Category) (string, bool) {
	if r.Prediction == nil {
		return "", false
	}
	v := r.Prediction.Labels.Value(c)
	if strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

// Join left-joins predictions onto gold conversations by ID, in gold order.
// Predictions with no gold row are dropped.
func Join(gold []domain.Conversation, preds []domain.Prediction) []Row {
	byID := make(map[string]int, len(preds))
	for i, p := range preds {
		if _, dup := byID[p.ConversationID]; !dup {
			byID[p.ConversationID] = i
		}
	}
	rows := make([]Row, len(gold))
	for i, conv := range gold {
		rows[i] = Row{Conversation: conv}
		if j, ok := byID[conv.ID]; ok {
			p := preds[j]
			rows[i].Prediction = &p
		}
	}
	return rows
}
