package dataset

import "fmt"

// LoadError represents a failure reading or parsing the projects CSV.
type LoadError struct {
	Message string
	Cause   error
}

func (e *LoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("dataset load error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("dataset load error: %s", e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}
