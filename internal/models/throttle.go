package models

import (
	"fmt"
	"time"
)

// ThrottleState is the per-key login failure record.
// All timestamps are Unix seconds.
type ThrottleState struct {
	Failures       int   `json:"failures"`
	FirstFailureAt int64 `json:"first_failure_at"`
	NextAllowedAt  int64 `json:"next_allowed_at"`
	BlockedUntil   int64 `json:"blocked_until"`
}

// ThrottleDecision is the outcome of a pre-login throttle check.
type ThrottleDecision struct {
	Allowed    bool
	RetryAfter time.Duration
	Detail     string
}

// RetryAfterSeconds returns RetryAfter rounded up to whole seconds, for the Retry-After header.
func (d ThrottleDecision) RetryAfterSeconds() int64 {
	secs := int64(d.RetryAfter / time.Second)
	if d.RetryAfter%time.Second != 0 {
		secs++
	}
	return secs
}

// ThrottledError is returned by the auth service when a login is rejected by the throttle.
type ThrottledError struct {
	Decision ThrottleDecision
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("login throttled: retry after %ds", e.Decision.RetryAfterSeconds())
}

// Is lets callers match with errors.Is(err, ErrRateLimitExceeded).
func (e *ThrottledError) Is(target error) bool {
	return target == ErrRateLimitExceeded
}
