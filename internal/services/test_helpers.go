package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/BradenHooton/taskdesk/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// MockUserRepository implements UserRepository for testing
type MockUserRepository struct {
	GetByIDFunc           func(ctx context.Context, id string) (*models.User, error)
	GetByEmailFunc        func(ctx context.Context, email string) (*models.User, error)
	CreateFunc            func(ctx context.Context, user *models.User) (*models.User, error)
	UpdateCredentialsFunc func(ctx context.Context, id, role, passwordHash string) (*models.User, error)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) UpdateCredentials(ctx context.Context, id, role, passwordHash string) (*models.User, error) {
	if m.UpdateCredentialsFunc != nil {
		return m.UpdateCredentialsFunc(ctx, id, role, passwordHash)
	}
	return nil, models.ErrNotFound
}

// MockTaskRepository implements TaskRepository for testing
type MockTaskRepository struct {
	CreateFunc      func(ctx context.Context, task *models.Task) (*models.Task, error)
	GetByIDFunc     func(ctx context.Context, ownerID, id string) (*models.Task, error)
	ListByOwnerFunc func(ctx context.Context, ownerID string, limit, offset int) ([]*models.Task, error)
	UpdateFunc      func(ctx context.Context, ownerID, id string, update models.TaskUpdate) (*models.Task, error)
}

func (m *MockTaskRepository) Create(ctx context.Context, task *models.Task) (*models.Task, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, task)
	}
	return nil, models.ErrInternalServer
}

func (m *MockTaskRepository) GetByID(ctx context.Context, ownerID, id string) (*models.Task, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, ownerID, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockTaskRepository) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*models.Task, error) {
	if m.ListByOwnerFunc != nil {
		return m.ListByOwnerFunc(ctx, ownerID, limit, offset)
	}
	return []*models.Task{}, nil
}

func (m *MockTaskRepository) Update(ctx context.Context, ownerID, id string, update models.TaskUpdate) (*models.Task, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, ownerID, id, update)
	}
	return nil, models.ErrNotFound
}

// MockTaskClassifier implements TaskClassifier for testing
type MockTaskClassifier struct {
	ClassifyTaskFunc func(ctx context.Context, title, description string) (models.TaskClassification, error)
}

func (m *MockTaskClassifier) ClassifyTask(ctx context.Context, title, description string) (models.TaskClassification, error) {
	if m.ClassifyTaskFunc != nil {
		return m.ClassifyTaskFunc(ctx, title, description)
	}
	return models.TaskClassification{}, errors.New("classifier not stubbed")
}

// MockRefreshTokenRepository implements RefreshTokenRepository for testing
type MockRefreshTokenRepository struct {
	CreateFunc    func(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error
	GetByHashFunc func(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	RevokeFunc    func(ctx context.Context, id string) error
	RotateFunc    func(ctx context.Context, oldID, userID, newHash string, expiresAt time.Time) error
}

func (m *MockRefreshTokenRepository) Create(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, userID, tokenHash, expiresAt)
	}
	return nil
}

func (m *MockRefreshTokenRepository) GetByHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	if m.GetByHashFunc != nil {
		return m.GetByHashFunc(ctx, tokenHash)
	}
	return nil, models.ErrNotFound
}

func (m *MockRefreshTokenRepository) Revoke(ctx context.Context, id string) error {
	if m.RevokeFunc != nil {
		return m.RevokeFunc(ctx, id)
	}
	return nil
}

func (m *MockRefreshTokenRepository) Rotate(ctx context.Context, oldID, userID, newHash string, expiresAt time.Time) error {
	if m.RotateFunc != nil {
		return m.RotateFunc(ctx, oldID, userID, newHash, expiresAt)
	}
	return nil
}

// MockLoginThrottle implements LoginThrottle and records calls
type MockLoginThrottle struct {
	Decision models.ThrottleDecision
	Failed   int
	Cleared  int
}

func (m *MockLoginThrottle) CheckLoginAllowed(ctx context.Context, ipAddress, email string) models.ThrottleDecision {
	return m.Decision
}

func (m *MockLoginThrottle) RegisterFailedLogin(ctx context.Context, ipAddress, email string) {
	m.Failed++
}

func (m *MockLoginThrottle) ClearFailedLogins(ctx context.Context, ipAddress, email string) {
	m.Cleared++
}

// mapThrottleStore is a minimal ThrottleStore that ignores TTLs
type mapThrottleStore struct {
	mu   sync.Mutex
	data map[string]models.ThrottleState
	ttls map[string]time.Duration
}

func newMapThrottleStore() *mapThrottleStore {
	return &mapThrottleStore{
		data: make(map[string]models.ThrottleState),
		ttls: make(map[string]time.Duration),
	}
}

func (m *mapThrottleStore) Get(ctx context.Context, key string) (*models.ThrottleState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	return &state, nil
}

func (m *mapThrottleStore) Set(ctx context.Context, key string, state models.ThrottleState, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = state
	m.ttls[key] = ttl
	return nil
}

func (m *mapThrottleStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	delete(m.ttls, key)
	return nil
}

func (m *mapThrottleStore) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for key := range m.data {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(m.data, key)
			delete(m.ttls, key)
			removed++
		}
	}
	return removed, nil
}

var errStoreDown = errors.New("store unavailable")

// failingThrottleStore fails every operation
type failingThrottleStore struct{}

func (failingThrottleStore) Get(ctx context.Context, key string) (*models.ThrottleState, error) {
	return nil, errStoreDown
}

func (failingThrottleStore) Set(ctx context.Context, key string, state models.ThrottleState, ttl time.Duration) error {
	return errStoreDown
}

func (failingThrottleStore) Delete(ctx context.Context, key string) error {
	return errStoreDown
}

func (failingThrottleStore) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	return 0, errStoreDown
}

// fakeClock is a settable time source
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewTestUser creates an active user whose password hash matches password
func NewTestUser(id, email, password string) *models.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return &models.User{
		ID:           id,
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleUser,
		IsActive:     true,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
}
