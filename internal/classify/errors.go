package classify

import (
	"fmt"

	"labeleval/internal/domain"
)

// IrrecoverableError stops a run: one conversation exhausted every attempt.
type IrrecoverableError struct {
	ConversationID string
	Model          string
	Cause          error
}

func (e *IrrecoverableError) Error() string {
	return fmt.Sprintf("classification failed for conversation_id=%s model=%s: %v", e.ConversationID, e.Model, e.Cause)
}

func (e *IrrecoverableError) Unwrap() []error {
	return []error{domain.ErrIrrecoverable, e.Cause}
}
