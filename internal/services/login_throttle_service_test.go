package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/BradenHooton/taskdesk/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testIP    = "203.0.113.7"
	testEmail = "alice@example.com"
)

func newTestThrottle(store ThrottleStore, cfg LoginThrottleConfig) (*LoginThrottleService, *fakeClock) {
	clock := newFakeClock()
	svc := NewLoginThrottleService(store, cfg, discardLogger())
	svc.SetClock(clock.Now)
	return svc, clock
}

func failN(svc *LoginThrottleService, n int) {
	for i := 0; i < n; i++ {
		svc.RegisterFailedLogin(context.Background(), testIP, testEmail)
	}
}

// ============================================================================
// Key derivation
// ============================================================================

func TestThrottleKey_NormalizesEmail(t *testing.T) {
	a := ThrottleKey(testIP, "Alice@Example.com ")
	b := ThrottleKey(testIP, "alice@example.com")

	assert.Equal(t, a, b)
	assert.True(t, strings.HasPrefix(a, ThrottleKeyPrefix+testIP+":"))
	assert.Len(t, strings.TrimPrefix(a, ThrottleKeyPrefix+testIP+":"), 32)
	assert.NotContains(t, a, "alice")
}

func TestThrottleKey_DistinctPerIP(t *testing.T) {
	assert.NotEqual(t, ThrottleKey("10.0.0.1", testEmail), ThrottleKey("10.0.0.2", testEmail))
}

// ============================================================================
// Backoff schedule
// ============================================================================

func TestCheckLoginAllowed_NoState(t *testing.T) {
	svc, _ := newTestThrottle(newMapThrottleStore(), DefaultLoginThrottleConfig())

	decision := svc.CheckLoginAllowed(context.Background(), testIP, testEmail)

	assert.True(t, decision.Allowed)
	assert.Zero(t, decision.RetryAfter)
}

func TestCheckLoginAllowed_BelowSoftThreshold(t *testing.T) {
	svc, _ := newTestThrottle(newMapThrottleStore(), DefaultLoginThrottleConfig())

	failN(svc, 4)

	assert.True(t, svc.CheckLoginAllowed(context.Background(), testIP, testEmail).Allowed)
}

func TestRegisterFailedLogin_FractionalDelaysRoundUp(t *testing.T) {
	cfg := DefaultLoginThrottleConfig()
	cfg.SoftThreshold = 1
	cfg.BaseDelay = 1500 * time.Millisecond
	svc, _ := newTestThrottle(newMapThrottleStore(), cfg)

	failN(svc, 1)

	decision := svc.CheckLoginAllowed(context.Background(), testIP, testEmail)
	assert.False(t, decision.Allowed)
	assert.Equal(t, 2*time.Second, decision.RetryAfter)
}

func TestCheckLoginAllowed_BackoffSchedule(t *testing.T) {
	tests := []struct {
		failures  int
		wantDelay time.Duration
		wantHard  bool
	}{
		{5, 30 * time.Second, false},
		{6, 60 * time.Second, false},
		{7, 120 * time.Second, false},
		{8, 240 * time.Second, false},
		{9, 300 * time.Second, false},
		{10, 300 * time.Second, true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("failures=%d", tt.failures), func(t *testing.T) {
			svc, _ := newTestThrottle(newMapThrottleStore(), DefaultLoginThrottleConfig())

			failN(svc, tt.failures)
			decision := svc.CheckLoginAllowed(context.Background(), testIP, testEmail)

			assert.False(t, decision.Allowed)
			assert.Equal(t, tt.wantDelay, decision.RetryAfter)
			if tt.wantHard {
				assert.Equal(t, detailHardBlock, decision.Detail)
			} else {
				assert.Equal(t, detailSoftDelay, decision.Detail)
			}
		})
	}
}

func TestCheckLoginAllowed_HardBlockUsesBlockDuration(t *testing.T) {
	cfg := DefaultLoginThrottleConfig()
	cfg.BlockDuration = 900 * time.Second
	svc, _ := newTestThrottle(newMapThrottleStore(), cfg)

	failN(svc, cfg.HardThreshold)
	decision := svc.CheckLoginAllowed(context.Background(), testIP, testEmail)

	assert.False(t, decision.Allowed)
	assert.Equal(t, 900*time.Second, decision.RetryAfter)
}

func TestCheckLoginAllowed_RetryAfterShrinksWithTime(t *testing.T) {
	svc, clock := newTestThrottle(newMapThrottleStore(), DefaultLoginThrottleConfig())

	failN(svc, 5)
	clock.Advance(20 * time.Second)

	decision := svc.CheckLoginAllowed(context.Background(), testIP, testEmail)
	assert.False(t, decision.Allowed)
	assert.Equal(t, 10*time.Second, decision.RetryAfter)

	clock.Advance(10 * time.Second)
	assert.True(t, svc.CheckLoginAllowed(context.Background(), testIP, testEmail).Allowed)
}

func TestBackoffDelay_NeverExceedsMax(t *testing.T) {
	svc, _ := newTestThrottle(newMapThrottleStore(), DefaultLoginThrottleConfig())

	for failures := 5; failures < 200; failures++ {
		assert.LessOrEqual(t, svc.backoffDelay(failures), 300*time.Second)
	}
}

// ============================================================================
// State lifecycle
// ============================================================================

func TestClearFailedLogins_ResetsState(t *testing.T) {
	store := newMapThrottleStore()
	svc, _ := newTestThrottle(store, DefaultLoginThrottleConfig())

	failN(svc, 10)
	svc.ClearFailedLogins(context.Background(), testIP, testEmail)

	assert.True(t, svc.CheckLoginAllowed(context.Background(), testIP, testEmail).Allowed)
	state, err := store.Get(context.Background(), ThrottleKey(testIP, testEmail))
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestClearFailedLogins_NoStateIsNoop(t *testing.T) {
	svc, _ := newTestThrottle(newMapThrottleStore(), DefaultLoginThrottleConfig())

	svc.ClearFailedLogins(context.Background(), testIP, testEmail)

	assert.True(t, svc.CheckLoginAllowed(context.Background(), testIP, testEmail).Allowed)
}

func TestRegisterFailedLogin_WindowExpiryRestartsCount(t *testing.T) {
	store := newMapThrottleStore()
	svc, clock := newTestThrottle(store, DefaultLoginThrottleConfig())

	failN(svc, 4)
	clock.Advance(3601 * time.Second)
	failN(svc, 1)

	state, err := store.Get(context.Background(), ThrottleKey(testIP, testEmail))
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, 1, state.Failures)
	assert.Equal(t, clock.Now().Unix(), state.FirstFailureAt)
	assert.Zero(t, state.BlockedUntil)
}

func TestRegisterFailedLogin_BlockedUntilOnlyAtHardThreshold(t *testing.T) {
	store := newMapThrottleStore()
	svc, _ := newTestThrottle(store, DefaultLoginThrottleConfig())
	key := ThrottleKey(testIP, testEmail)

	for i := 1; i <= 10; i++ {
		failN(svc, 1)
		state, err := store.Get(context.Background(), key)
		require.NoError(t, err)
		if i < 10 {
			assert.Zero(t, state.BlockedUntil, "failures=%d", i)
		} else {
			assert.NotZero(t, state.BlockedUntil)
			assert.Equal(t, state.BlockedUntil, state.NextAllowedAt)
		}
	}
}

func TestRegisterFailedLogin_TTLCoversDeadlines(t *testing.T) {
	store := newMapThrottleStore()
	cfg := DefaultLoginThrottleConfig()
	cfg.StateTTL = 60 * time.Second
	cfg.BlockDuration = 600 * time.Second
	svc, _ := newTestThrottle(store, cfg)
	key := ThrottleKey(testIP, testEmail)

	failN(svc, 1)
	assert.Equal(t, 60*time.Second, store.ttls[key])

	failN(svc, cfg.HardThreshold-1)
	assert.Equal(t, 600*time.Second, store.ttls[key])
}

func TestResetAll_RemovesOnlyThrottleKeys(t *testing.T) {
	store := newMapThrottleStore()
	svc, _ := newTestThrottle(store, DefaultLoginThrottleConfig())

	svc.RegisterFailedLogin(context.Background(), "10.0.0.1", "a@example.com")
	svc.RegisterFailedLogin(context.Background(), "10.0.0.2", "b@example.com")
	require.NoError(t, store.Set(context.Background(), "other:key", store.data[ThrottleKey("10.0.0.1", "a@example.com")], time.Minute))

	svc.ResetAll(context.Background())

	assert.Len(t, store.data, 1)
	assert.Contains(t, store.data, "other:key")
}

// ============================================================================
// Store failures
// ============================================================================

func TestLoginThrottle_FailsOpenWhenStoreDown(t *testing.T) {
	svc, _ := newTestThrottle(failingThrottleStore{}, DefaultLoginThrottleConfig())
	ctx := context.Background()

	assert.NotPanics(t, func() {
		failN(svc, 20)
		svc.ClearFailedLogins(ctx, testIP, testEmail)
		svc.ResetAll(ctx)
	})
	assert.True(t, svc.CheckLoginAllowed(ctx, testIP, testEmail).Allowed)
}

// ============================================================================
// Scenarios
// ============================================================================

func TestLoginThrottle_ScenarioBackoffThenRecover(t *testing.T) {
	cfg := LoginThrottleConfig{
		SoftThreshold: 2,
		HardThreshold: 4,
		BaseDelay:     10 * time.Second,
		MaxDelay:      30 * time.Second,
		BlockDuration: 120 * time.Second,
		StateTTL:      time.Hour,
	}
	store := newMapThrottleStore()
	svc, clock := newTestThrottle(store, cfg)
	ctx := context.Background()

	failN(svc, 2)
	decision := svc.CheckLoginAllowed(ctx, testIP, testEmail)
	assert.False(t, decision.Allowed)
	assert.Equal(t, int64(10), decision.RetryAfterSeconds())

	clock.Advance(11 * time.Second)
	require.True(t, svc.CheckLoginAllowed(ctx, testIP, testEmail).Allowed)
	svc.ClearFailedLogins(ctx, testIP, testEmail)

	failN(svc, 1)
	assert.True(t, svc.CheckLoginAllowed(ctx, testIP, testEmail).Allowed)
	state, err := store.Get(ctx, ThrottleKey(testIP, testEmail))
	require.NoError(t, err)
	assert.Equal(t, 1, state.Failures)
}

func TestLoginThrottle_ScenarioHardBlock(t *testing.T) {
	cfg := LoginThrottleConfig{
		SoftThreshold: 2,
		HardThreshold: 3,
		BaseDelay:     10 * time.Second,
		MaxDelay:      30 * time.Second,
		BlockDuration: 120 * time.Second,
		StateTTL:      time.Hour,
	}
	svc, clock := newTestThrottle(newMapThrottleStore(), cfg)
	ctx := context.Background()

	failN(svc, 2)
	clock.Advance(11 * time.Second)
	require.True(t, svc.CheckLoginAllowed(ctx, testIP, testEmail).Allowed)
	failN(svc, 1)

	decision := svc.CheckLoginAllowed(ctx, testIP, testEmail)
	assert.False(t, decision.Allowed)
	assert.Equal(t, int64(120), decision.RetryAfterSeconds())
}

// ============================================================================
// Concurrency
// ============================================================================

func TestLoginThrottle_ConcurrentFailuresWithMemoryStore(t *testing.T) {
	store := repositories.NewThrottleMemoryStore()
	svc := NewLoginThrottleService(store, DefaultLoginThrottleConfig(), discardLogger())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.RegisterFailedLogin(ctx, testIP, testEmail)
			svc.CheckLoginAllowed(ctx, testIP, testEmail)
		}()
	}
	wg.Wait()

	state, err := store.Get(ctx, ThrottleKey(testIP, testEmail))
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.GreaterOrEqual(t, state.Failures, 1)
	assert.LessOrEqual(t, state.Failures, 50)

	svc.ResetAll(ctx)
	assert.Zero(t, store.Len())
}
