package artifacts

import "fmt"

// StoreError represents a failure reading or writing an artifact file.
type StoreError struct {
	Path    string
	Message string
	Cause   error
}

func (e *StoreError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("artifact store error for %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("artifact store error for %s: %s", e.Path, e.Message)
}

func (e *StoreError) Unwrap() error {
	return e.Cause
}
