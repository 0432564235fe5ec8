package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/BradenHooton/taskdesk/internal/auth"
	"github.com/BradenHooton/taskdesk/internal/models"
	pkghttp "github.com/BradenHooton/taskdesk/pkg/http"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// TaskServiceInterface defines the task operations the HTTP layer needs
type TaskServiceInterface interface {
	Create(ctx context.Context, ownerID, title string, description *string) (*models.Task, error)
	Get(ctx context.Context, ownerID, id string) (*models.Task, error)
	List(ctx context.Context, ownerID string, limit, offset int) ([]*models.Task, error)
	Update(ctx context.Context, ownerID, id string, update models.TaskUpdate) (*models.Task, error)
}

// TaskHandler serves /tasks. Every route must run behind auth.AuthMiddleware.
type TaskHandler struct {
	service TaskServiceInterface
	logger  *slog.Logger
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(service TaskServiceInterface, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{service: service, logger: logger}
}

// CreateTaskRequest is the body of POST /tasks
type CreateTaskRequest struct {
	Title       string  `json:"title" validate:"required,max=255"`
	Description *string `json:"description" validate:"omitempty,max=10000"`
}

// UpdateTaskRequest is the body of PATCH /tasks/{id}; omitted fields are unchanged
type UpdateTaskRequest struct {
	Status            *string `json:"status" validate:"omitempty,oneof=pending processing completed failed"`
	Category          *string `json:"category" validate:"omitempty,min=1,max=120"`
	Priority          *string `json:"priority" validate:"omitempty,min=1,max=16"`
	EstimatedDuration *int    `json:"estimated_duration" validate:"omitempty,min=1,max=10080"`
}

// TaskListResponse wraps a page of tasks
type TaskListResponse struct {
	Tasks []*models.Task `json:"tasks"`
	Count int            `json:"count"`
}

// Create handles POST /tasks
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromContext(r)
	if user == nil {
		pkghttp.WriteUnauthorized(w, "Not authenticated")
		return
	}

	var req CreateTaskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	task, err := h.service.Create(r.Context(), user.ID, req.Title, req.Description)
	if err != nil {
		pkghttp.WriteInternalError(w, "internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, task)
}

// List handles GET /tasks?limit=&offset=
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromContext(r)
	if user == nil {
		pkghttp.WriteUnauthorized(w, "Not authenticated")
		return
	}

	limit, err := queryInt(r, "limit")
	if err != nil {
		pkghttp.WriteBadRequest(w, "limit must be an integer")
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		pkghttp.WriteBadRequest(w, "offset must be an integer")
		return
	}

	tasks, err := h.service.List(r.Context(), user.ID, limit, offset)
	if err != nil {
		pkghttp.WriteInternalError(w, "internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, TaskListResponse{Tasks: tasks, Count: len(tasks)})
}

// Get handles GET /tasks/{id}
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromContext(r)
	if user == nil {
		pkghttp.WriteUnauthorized(w, "Not authenticated")
		return
	}

	id, ok := taskIDParam(r)
	if !ok {
		pkghttp.WriteNotFound(w, "Task not found")
		return
	}

	task, err := h.service.Get(r.Context(), user.ID, id)
	if err != nil {
		h.writeTaskError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, task)
}

// Update handles PATCH /tasks/{id}
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromContext(r)
	if user == nil {
		pkghttp.WriteUnauthorized(w, "Not authenticated")
		return
	}

	id, ok := taskIDParam(r)
	if !ok {
		pkghttp.WriteNotFound(w, "Task not found")
		return
	}

	var req UpdateTaskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	update := models.TaskUpdate{
		Category:          req.Category,
		Priority:          req.Priority,
		EstimatedDuration: req.EstimatedDuration,
	}
	if req.Status != nil {
		status := models.TaskStatus(*req.Status)
		update.Status = &status
	}

	task, err := h.service.Update(r.Context(), user.ID, id, update)
	if err != nil {
		h.writeTaskError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) writeTaskError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, "Task not found")
	case errors.Is(err, models.ErrBadRequest):
		pkghttp.WriteBadRequest(w, err.Error())
	default:
		pkghttp.WriteInternalError(w, "internal server error")
	}
}

// taskIDParam returns the {id} path value when it is a UUID
func taskIDParam(r *http.Request) (string, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return "", false
	}
	return id.String(), true
}

// queryInt parses an optional integer query parameter; absent means 0
func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
