package poller

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrBodyTooLarge is the cause of a [KindNetwork] error when a page exceeds
// the 1MB body limit. A partial page would hide commands listed past the cut.
var ErrBodyTooLarge = errors.New("response body exceeds 1 MiB")

// FetchErrorKind classifies why a fetch failed.
type FetchErrorKind string

const (
	// KindTimeout means the request did not complete within its timeout.
	KindTimeout FetchErrorKind = "timeout"

	// KindNonSuccessStatus means the server answered with a non-2xx status code.
	KindNonSuccessStatus FetchErrorKind = "non_success_status"

	// KindNetwork covers every other transport or body-read failure,
	// including cancellation of the caller's context.
	KindNetwork FetchErrorKind = "network"
)

// FetchError is returned by [Client.Fetch] when a page could not be retrieved.
type FetchError struct {
	// Kind is the failure classification.
	Kind FetchErrorKind

	// URL is the page that was requested.
	URL string

	// Code is the HTTP status code. Only set for KindNonSuccessStatus.
	Code int

	// Err is the underlying cause, if any.
	Err error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case KindTimeout:
		return fmt.Sprintf("fetch %s: timed out", e.URL)
	case KindNonSuccessStatus:
		return fmt.Sprintf("fetch %s: unexpected status %d %s", e.URL, e.Code, http.StatusText(e.Code))
	default:
		if e.Err != nil {
			return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
		}
		return fmt.Sprintf("fetch %s: network error", e.URL)
	}
}

// Unwrap returns the underlying cause so callers can use errors.Is
// (for example against context.Canceled).
func (e *FetchError) Unwrap() error {
	return e.Err
}
