package classify

import "fmt"

// ClassificationError represents a failure to produce an opposition verdict.
// Unlike search or extraction failures it is fatal for the project run.
type ClassificationError struct {
	Message string
	Cause   error
}

func (e *ClassificationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("classification error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("classification error: %s", e.Message)
}

func (e *ClassificationError) Unwrap() error {
	return e.Cause
}
