package fetcher

import (
	"errors"
	"fmt"
	"net/http"
)

// BlockedError is returned when the site refuses the crawler with 403 or 429.
// It is never retried.
type BlockedError struct {
	URL        string
	StatusCode int
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("Blocked: %d", e.StatusCode)
}

// TransportError covers every other failed fetch: timeouts, DNS and
// connection failures, unexpected statuses and unreadable bodies.
type TransportError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsBlocked reports whether err is a BlockedError.
func IsBlocked(err error) bool {
	var blocked *BlockedError
	return errors.As(err, &blocked)
}

func isBlockedStatus(code int) bool {
	return code == http.StatusForbidden || code == http.StatusTooManyRequests
}
