package queries

import "fmt"

// GenerationError represents a failure to synthesize search queries.
type GenerationError struct {
	Message string
	Cause   error
}

func (e *GenerationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("query generation error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("query generation error: %s", e.Message)
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}
