package githost

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidReference marks input that does not name a repository. It is a
// user error and must never be retried.
var ErrInvalidReference = errors.New("not a repository url")

// ErrRepositoryNotFound marks a repository or tree the host does not know.
var ErrRepositoryNotFound = errors.New("repository not found")

// ErrEmptyResult marks a scan that completed without finding any analyzable
// files. Distinct from transport faults so callers can suggest a different
// repository instead of retrying.
var ErrEmptyResult = errors.New("no analyzable files found")

// RateLimitedError reports that the host refused a request because the rate
// budget is exhausted. Reset carries the host-reported time at which the
// budget renews; callers may retry after it.
type RateLimitedError struct {
	Reset time.Time
}

func (e *RateLimitedError) Error() string {
	if e.Reset.IsZero() {
		return "rate limited by host"
	}
	return fmt.Sprintf("rate limited by host until %s", e.Reset.UTC().Format(time.RFC3339))
}

// HostError reports a non-success host status that is neither not-found nor
// rate limiting. The client retries these a bounded number of times before
// surfacing the last one.
type HostError struct {
	Status int
}

func (e *HostError) Error() string {
	return fmt.Sprintf("host returned status %d", e.Status)
}

// IsNotFound reports whether err is a not-found failure.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRepositoryNotFound)
}

// AsRateLimited unwraps err to a RateLimitedError if it is one.
func AsRateLimited(err error) (*RateLimitedError, bool) {
	var rl *RateLimitedError
	if errors.As(err, &rl) {
		return rl, true
	}
	return nil, false
}
