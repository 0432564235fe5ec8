package models

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestThrottleDecision_RetryAfterSeconds(t *testing.T) {
	tests := []struct {
		retryAfter time.Duration
		expected   int64
	}{
		{0, 0},
		{30 * time.Second, 30},
		{29*time.Second + time.Millisecond, 30},
		{500 * time.Millisecond, 1},
	}

	for _, tt := range tests {
		d := ThrottleDecision{RetryAfter: tt.retryAfter}
		assert.Equal(t, tt.expected, d.RetryAfterSeconds(), tt.retryAfter.String())
	}
}

func TestThrottledError_MatchesRateLimitSentinel(t *testing.T) {
	err := fmt.Errorf("login: %w", &ThrottledError{Decision: ThrottleDecision{RetryAfter: 10 * time.Second}})

	assert.True(t, errors.Is(err, ErrRateLimitExceeded))
	assert.False(t, errors.Is(err, ErrUnauthorized))

	var throttled *ThrottledError
	assert.True(t, errors.As(err, &throttled))
	assert.Equal(t, "login throttled: retry after 10s", throttled.Error())
}
