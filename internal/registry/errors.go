package registry

import "fmt"

// ScrapeError represents a failure while fetching or parsing registry pages.
type ScrapeError struct {
	Message string
	Cause   error
}

func (e *ScrapeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("scrape error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("scrape error: %s", e.Message)
}

func (e *ScrapeError) Unwrap() error {
	return e.Cause
}
