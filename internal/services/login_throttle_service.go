package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"
	"time"

	"github.com/BradenHooton/taskdesk/internal/models"
)

// ThrottleKeyPrefix namespaces every login throttle key in the backing store
const ThrottleKeyPrefix = "auth:login-throttle:"

const (
	detailHardBlock = "Too many failed login attempts. Try again later."
	detailSoftDelay = "Too many failed login attempts. Slow down and try again shortly."
)

// ThrottleStore defines the key-value operations the login throttle needs.
// Get returns (nil, nil) when no state exists for the key.
type ThrottleStore interface {
	Get(ctx context.Context, key string) (*models.ThrottleState, error)
	Set(ctx context.Context, key string, state models.ThrottleState, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}

// LoginThrottleConfig holds thresholds and delays for login throttling
type LoginThrottleConfig struct {
	SoftThreshold int           // failures before exponential backoff starts
	HardThreshold int           // failures before a full block
	BaseDelay     time.Duration // first backoff delay, doubled per extra failure
	MaxDelay      time.Duration // cap on backoff delay
	BlockDuration time.Duration // length of a hard block
	StateTTL      time.Duration // failure window; state idle longer than this starts over
}

// DefaultLoginThrottleConfig returns the production defaults
func DefaultLoginThrottleConfig() LoginThrottleConfig {
	return LoginThrottleConfig{
		SoftThreshold: 5,
		HardThreshold: 10,
		BaseDelay:     30 * time.Second,
		MaxDelay:      300 * time.Second,
		BlockDuration: 300 * time.Second,
		StateTTL:      3600 * time.Second,
	}
}

// LoginThrottleService tracks failed logins per (client IP, email) and decides
// whether the next attempt may proceed. Store failures never reach the caller:
// reads fail open and writes are best-effort.
type LoginThrottleService struct {
	store  ThrottleStore
	config LoginThrottleConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewLoginThrottleService creates a new LoginThrottleService
func NewLoginThrottleService(store ThrottleStore, config LoginThrottleConfig, logger *slog.Logger) *LoginThrottleService {
	return &LoginThrottleService{
		store:  store,
		config: config,
		logger: logger,
		now:    time.Now,
	}
}

// SetClock replaces the time source. Intended for tests.
func (s *LoginThrottleService) SetClock(now func() time.Time) {
	s.now = now
}

// ThrottleKey builds the store key for an IP and email. The email is trimmed,
// lowercased and hashed so raw addresses never land in the store.
func ThrottleKey(ipAddress, email string) string {
	normalized := strings.ToLower(strings.TrimSpace(email))
	sum := sha256.Sum256([]byte(normalized))
	return ThrottleKeyPrefix + ipAddress + ":" + hex.EncodeToString(sum[:])[:32]
}

// CheckLoginAllowed reports whether a login attempt may proceed to credential verification
func (s *LoginThrottleService) CheckLoginAllowed(ctx context.Context, ipAddress, email string) models.ThrottleDecision {
	state := s.load(ctx, ThrottleKey(ipAddress, email))
	if state == nil {
		return models.ThrottleDecision{Allowed: true}
	}

	now := s.now().Unix()

	if state.BlockedUntil > now {
		return models.ThrottleDecision{
			Allowed:    false,
			RetryAfter: time.Duration(state.BlockedUntil-now) * time.Second,
			Detail:     detailHardBlock,
		}
	}

	if state.NextAllowedAt > now {
		return models.ThrottleDecision{
			Allowed:    false,
			RetryAfter: time.Duration(state.NextAllowedAt-now) * time.Second,
			Detail:     detailSoftDelay,
		}
	}

	return models.ThrottleDecision{Allowed: true}
}

// RegisterFailedLogin records a failed attempt and schedules the next allowed time
func (s *LoginThrottleService) RegisterFailedLogin(ctx context.Context, ipAddress, email string) {
	key := ThrottleKey(ipAddress, email)
	now := s.now().Unix()

	state := models.ThrottleState{FirstFailureAt: now}
	if prev := s.load(ctx, key); prev != nil {
		state = *prev
	}

	if now-state.FirstFailureAt > seconds(s.config.StateTTL) {
		state.FirstFailureAt = now
		state.Failures = 0
	}

	state.Failures++
	state.NextAllowedAt = now
	state.BlockedUntil = 0

	switch {
	case state.Failures >= s.config.HardThreshold:
		state.BlockedUntil = now + seconds(s.config.BlockDuration)
		state.NextAllowedAt = state.BlockedUntil
	case state.Failures >= s.config.SoftThreshold:
		state.NextAllowedAt = now + seconds(s.backoffDelay(state.Failures))
	}

	ttl := max(seconds(s.config.StateTTL), state.NextAllowedAt-now, state.BlockedUntil-now, 1)

	if state.Failures >= s.config.SoftThreshold {
		s.logger.Warn("login throttled",
			slog.String("ip_address", ipAddress),
			slog.Int("failures", state.Failures),
			slog.Bool("blocked", state.BlockedUntil > 0))
	}

	if err := s.store.Set(ctx, key, state, time.Duration(ttl)*time.Second); err != nil {
		s.logger.Warn("failed to persist login throttle state", slog.Any("error", err))
	}
}

// ClearFailedLogins drops all throttle state for the key. Safe to call when none exists.
func (s *LoginThrottleService) ClearFailedLogins(ctx context.Context, ipAddress, email string) {
	if err := s.store.Delete(ctx, ThrottleKey(ipAddress, email)); err != nil {
		s.logger.Warn("failed to clear login throttle state", slog.Any("error", err))
	}
}

// ResetAll removes every throttle entry from the store. Test harnesses only.
func (s *LoginThrottleService) ResetAll(ctx context.Context) {
	removed, err := s.store.DeletePrefix(ctx, ThrottleKeyPrefix)
	if err != nil {
		s.logger.Warn("failed to reset login throttle state", slog.Any("error", err))
		return
	}
	s.logger.Debug("login throttle state reset", slog.Int("keys_removed", removed))
}

// backoffDelay is BaseDelay * 2^(failures-SoftThreshold), capped at MaxDelay
func (s *LoginThrottleService) backoffDelay(failures int) time.Duration {
	delay := s.config.BaseDelay
	for i := s.config.SoftThreshold; i < failures; i++ {
		delay *= 2
		if delay >= s.config.MaxDelay {
			return s.config.MaxDelay
		}
	}
	return min(delay, s.config.MaxDelay)
}

func (s *LoginThrottleService) load(ctx context.Context, key string) *models.ThrottleState {
	state, err := s.store.Get(ctx, key)
	if err != nil {
		s.logger.Warn("failed to load login throttle state, allowing attempt", slog.Any("error", err))
		return nil
	}
	return state
}

// seconds rounds d up so a sub-second remainder never shortens a delay
func seconds(d time.Duration) int64 {
	secs := int64(d / time.Second)
	if d%time.Second > 0 {
		secs++
	}
	return secs
}
