package githost

import (
	"net/http"
	"strconv"
	"time"
)

// rateLimit holds the normalized rate-limit signals of one host response.
type rateLimit struct {
	Remaining  int
	Reset      time.Time
	RetryAfter time.Duration
}

// parseRateLimit reads the host's rate-limit headers. Remaining is -1 when
// the header is absent so "0 remaining" stays distinguishable.
func parseRateLimit(h http.Header) rateLimit {
	rl := rateLimit{Remaining: -1}

	if v := h.Get("x-ratelimit-remaining"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			rl.Remaining = n
		}
	}
	if v := h.Get("x-ratelimit-reset"); v != "" {
		if sec, err := strconv.ParseInt(v, 10, 64); err == nil {
			rl.Reset = time.Unix(sec, 0)
		}
	}
	if v := h.Get("retry-after"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			rl.RetryAfter = time.Duration(n) * time.Second
		}
	}
	return rl
}

// exhausted reports whether the response means the rate budget is spent. The
// host signals this either as 429 or as 403 with zero remaining requests.
func (rl rateLimit) exhausted(status int) bool {
	if status == http.StatusTooManyRequests {
		return true
	}
	return status == http.StatusForbidden && rl.Remaining == 0
}

// resetTime returns the best-effort time at which requests may resume.
func (rl rateLimit) resetTime() time.Time {
	if !rl.Reset.IsZero() {
		return rl.Reset
	}
	if rl.RetryAfter > 0 {
		return time.Now().Add(rl.RetryAfter)
	}
	return time.Time{}
}
