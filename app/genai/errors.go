package genai

import (
	"errors"
	"fmt"
)

var ErrInvalidInput = errors.New("invalid generation input")

// GenerationError is returned once a flow has exhausted its retries.
// Callers treat it as a soft failure.
type GenerationError struct {
	Flow     string
	Attempts int
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s generation failed after %d attempts: %v", e.Flow, e.Attempts, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
