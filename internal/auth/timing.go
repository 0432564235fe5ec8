package auth

import (
	"crypto/rand"
	"math/big"
	"time"
)

// TimingConfig holds the padding applied to failed credential checks
type TimingConfig struct {
	BaseDelayMs   int // fixed part of the delay
	RandomDelayMs int // upper bound of the random jitter added on top
}

// TimingDelay pads failed logins so that unknown-email and wrong-password
// responses take roughly the same time
type TimingDelay struct {
	config TimingConfig
	sleep  func(time.Duration)
}

// NewTimingDelay creates a new TimingDelay instance
func NewTimingDelay(config TimingConfig) *TimingDelay {
	return &TimingDelay{
		config: config,
		sleep:  time.Sleep,
	}
}

// Enabled reports whether any delay is configured
func (td *TimingDelay) Enabled() bool {
	return td != nil && (td.config.BaseDelayMs > 0 || td.config.RandomDelayMs > 0)
}

// WaitFrom sleeps until at least base+jitter has elapsed since start.
// No-op when nothing is configured or the target has already passed.
func (td *TimingDelay) WaitFrom(start time.Time) {
	if !td.Enabled() {
		return
	}

	target := time.Duration(td.config.BaseDelayMs)*time.Millisecond + td.jitter()
	if remaining := target - time.Since(start); remaining > 0 {
		td.sleep(remaining)
	}
}

// jitter uses crypto/rand so the padding cannot be predicted
func (td *TimingDelay) jitter() time.Duration {
	if td.config.RandomDelayMs <= 0 {
		return 0
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(td.config.RandomDelayMs)))
	if err != nil {
		return 0
	}
	return time.Duration(n.Int64()) * time.Millisecond
}
