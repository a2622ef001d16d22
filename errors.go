package defconboard

import (
	"errors"
	"time"

	"github.com/jpalmerr/defconboard/internal/poller"
)

// FetchError describes why the source page could not be retrieved.
// Inspect Kind to distinguish timeouts, HTTP status failures and network errors.
type FetchError = poller.FetchError

// FetchErrorKind classifies a [FetchError].
type FetchErrorKind = poller.FetchErrorKind

// Fetch failure kinds.
const (
	FetchTimeout          = poller.KindTimeout
	FetchNonSuccessStatus = poller.KindNonSuccessStatus
	FetchNetwork          = poller.KindNetwork
)

// ErrNotReady is returned when no snapshot could be produced yet.
var ErrNotReady = errors.New("defconboard: no snapshot available")

// RefreshError reports a failed refresh cycle. The previous snapshot and
// state table are left untouched.
type RefreshError struct {
	// Err is the underlying cause, usually a *FetchError.
	Err error

	// At is the board clock time when the cycle started.
	At time.Time

	// CycleID correlates the error with the cycle's log lines.
	CycleID string
}

func (e *RefreshError) Error() string {
	return "refresh failed: " + e.Err.Error()
}

func (e *RefreshError) Unwrap() error {
	return e.Err
}
