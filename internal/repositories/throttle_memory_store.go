package repositories

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/BradenHooton/taskdesk/internal/models"
)

type memoryEntry struct {
	state     models.ThrottleState
	expiresAt time.Time
}

// ThrottleMemoryStore keeps login throttle state in process memory.
// Used when no Redis URL is configured; state is not shared across processes.
type ThrottleMemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewThrottleMemoryStore() *ThrottleMemoryStore {
	return &ThrottleMemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// SetClock replaces the time source used for expiry. Intended for tests.
func (m *ThrottleMemoryStore) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// Get returns the state for key, evicting it if it has expired
func (m *ThrottleMemoryStore) Get(ctx context.Context, key string) (*models.ThrottleState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return nil, nil
	}
	if !m.now().Before(entry.expiresAt) {
		delete(m.entries, key)
		return nil, nil
	}

	state := entry.state
	return &state, nil
}

func (m *ThrottleMemoryStore) Set(ctx context.Context, key string, state models.ThrottleState, ttl time.Duration) error {
	if ttl < time.Second {
		ttl = time.Second
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = memoryEntry{state: state, expiresAt: m.now().Add(ttl)}
	return nil
}

func (m *ThrottleMemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)
	return nil
}

// DeletePrefix removes every entry whose key starts with prefix
func (m *ThrottleMemoryStore) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
			removed++
		}
	}
	return removed, nil
}

// PurgeExpired sweeps expired entries so keys that are never read again still go away
func (m *ThrottleMemoryStore) PurgeExpired(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	var removed int64
	for key, entry := range m.entries {
		if !now.Before(entry.expiresAt) {
			delete(m.entries, key)
			removed++
		}
	}
	return removed, nil
}

// Len reports the number of stored entries, expired or not
func (m *ThrottleMemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
