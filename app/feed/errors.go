package feed

import (
	"errors"
	"fmt"
)

var (
	ErrFeedNotFound = errors.New("feed configuration not found")
	ErrFeedDisabled = errors.New("feed is disabled")
	ErrInvalidURL   = errors.New("url must be an absolute http or https url")
	ErrNoContent    = errors.New("no readable content found")
	ErrInvalidPage  = errors.New("page must be a positive integer")
)

// FetchError reports a remote document that could not be retrieved.
// StatusCode is zero for transport failures.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to fetch %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("failed to fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
