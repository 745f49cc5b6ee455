package upstream

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidPage   = errors.New("page must be a positive integer")
	ErrInvalidCursor = errors.New("cursor is not a valid query segment")
)

// ConfigurationError reports a server setting required by a route that was
// never configured.
type ConfigurationError struct {
	Setting string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("server configuration error: missing %s", e.Setting)
}

// UpstreamError wraps a failed provider call. StatusCode is zero when the
// provider never answered or the body could not be decoded.
type UpstreamError struct {
	Route      Route
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to fetch %s: upstream status %d", e.Route, e.StatusCode)
	}
	return fmt.Sprintf("failed to fetch %s: %v", e.Route, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
