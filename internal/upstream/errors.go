package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// FetchError is returned for any failure talking to the upstream API.
// Transport failures, timeouts and 5xx responses are retryable; 4xx
// responses are terminal.
type FetchError struct {
	ResourceType string
	URL          string
	StatusCode   int
	Retryable    bool
	Err          error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: %s returned %d: %v", e.ResourceType, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s: %v", e.ResourceType, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// NotFound reports whether the upstream answered 404.
func (e *FetchError) NotFound() bool { return e.StatusCode == http.StatusNotFound }

// IsRetryable reports whether err is a FetchError worth retrying.
func IsRetryable(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Retryable
}

func statusError(resourceType, url string, status int, detail string) *FetchError {
	return &FetchError{
		ResourceType: resourceType,
		URL:          url,
		StatusCode:   status,
		Retryable:    status >= 500,
		Err:          errors.New(detail),
	}
}

func transportError(resourceType, url string, err error) *FetchError {
	return &FetchError{
		ResourceType: resourceType,
		URL:          url,
		Retryable:    !errors.Is(err, context.Canceled),
		Err:          err,
	}
}
