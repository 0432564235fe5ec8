package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BradenHooton/taskdesk/internal/auth"
	"github.com/BradenHooton/taskdesk/internal/models"
	"github.com/BradenHooton/taskdesk/internal/services"
	pkghttp "github.com/BradenHooton/taskdesk/pkg/http"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithUserContext stores user in the request context the way auth.AuthMiddleware does
func WithUserContext(req *http.Request, user *models.User) *http.Request {
	ctx := context.WithValue(req.Context(), auth.UserContextKey, user)
	return req.WithContext(ctx)
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	t.Helper()
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"), "Content-Type should be application/json")

	if target != nil {
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), target), "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks status, error code and message of an error response
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError, expectedMessage string) {
	t.Helper()
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	if expectedMessage != "" {
		assert.Equal(t, expectedMessage, resp.Message, "Error message mismatch")
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	RegisterFunc func(ctx context.Context, email, password string) (*models.User, error)
	LoginFunc    func(ctx context.Context, email, password, ipAddress string) (*services.TokenResponse, error)
	RefreshFunc  func(ctx context.Context, refreshToken string) (*services.TokenResponse, error)
	LogoutFunc   func(ctx context.Context, refreshToken string) error
}

func (m *MockAuthService) Register(ctx context.Context, email, password string) (*models.User, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, email, password)
	}
	return nil, models.ErrInternalServer
}

func (m *MockAuthService) Login(ctx context.Context, email, password, ipAddress string) (*services.TokenResponse, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password, ipAddress)
	}
	return nil, models.ErrUnauthorized
}

func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string) (*services.TokenResponse, error) {
	if m.RefreshFunc != nil {
		return m.RefreshFunc(ctx, refreshToken)
	}
	return nil, models.ErrInvalidToken
}

func (m *MockAuthService) Logout(ctx context.Context, refreshToken string) error {
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx, refreshToken)
	}
	return nil
}

// MockTaskService implements TaskServiceInterface for testing
type MockTaskService struct {
	CreateFunc func(ctx context.Context, ownerID, title string, description *string) (*models.Task, error)
	GetFunc    func(ctx context.Context, ownerID, id string) (*models.Task, error)
	ListFunc   func(ctx context.Context, ownerID string, limit, offset int) ([]*models.Task, error)
	UpdateFunc func(ctx context.Context, ownerID, id string, update models.TaskUpdate) (*models.Task, error)
}

func (m *MockTaskService) Create(ctx context.Context, ownerID, title string, description *string) (*models.Task, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, ownerID, title, description)
	}
	return nil, models.ErrInternalServer
}

func (m *MockTaskService) Get(ctx context.Context, ownerID, id string) (*models.Task, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, ownerID, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockTaskService) List(ctx context.Context, ownerID string, limit, offset int) ([]*models.Task, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, ownerID, limit, offset)
	}
	return []*models.Task{}, nil
}

func (m *MockTaskService) Update(ctx context.Context, ownerID, id string, update models.TaskUpdate) (*models.Task, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, ownerID, id, update)
	}
	return nil, models.ErrNotFound
}

// WithURLParam sets a chi path parameter on req
func WithURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}
