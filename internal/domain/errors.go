package domain

import "errors"

var (
	ErrMalformedRecord   = errors.New("malformed input record")
	ErrMissingFile       = errors.New("required file missing")
	ErrMissingColumn     = errors.New("required column missing")
	ErrDuplicateID       = errors.New("duplicate conversation_id")
	ErrStructural        = errors.New("structural classification failure")
	ErrIrrecoverable     = errors.New("irrecoverable classification failure")
	ErrMissingCredential = errors.New("missing classification-service credential")
	ErrPlaceholder       = errors.New("prompt template placeholder")
)
