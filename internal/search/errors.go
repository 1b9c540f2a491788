package search

import "fmt"

// SearchError represents a failure of one search call.
type SearchError struct {
	Language string
	Message  string
	Cause    error
}

func (e *SearchError) Error() string {
	lang := e.Language
	if lang == "" {
		lang = "?"
	}
	if e.Cause != nil {
		return fmt.Sprintf("search error (%s): %s: %v", lang, e.Message, e.Cause)
	}
	return fmt.Sprintf("search error (%s): %s", lang, e.Message)
}

func (e *SearchError) Unwrap() error {
	return e.Cause
}
