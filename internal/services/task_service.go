package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/BradenHooton/taskdesk/internal/models"
)

const (
	DefaultTaskPageSize = 50
	MaxTaskPageSize     = 100
)

var errClassifierUnavailable = errors.New("task classifier not configured")

// TaskRepository defines the task persistence operations
type TaskRepository interface {
	Create(ctx context.Context, task *models.Task) (*models.Task, error)
	GetByID(ctx context.Context, ownerID, id string) (*models.Task, error)
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*models.Task, error)
	Update(ctx context.Context, ownerID, id string, update models.TaskUpdate) (*models.Task, error)
}

// TaskClassifier assigns category, priority and estimated duration to a task
type TaskClassifier interface {
	ClassifyTask(ctx context.Context, title, description string) (models.TaskClassification, error)
}

// TaskService manages a user's tasks. New tasks are classified before they are
// stored; a classifier failure never fails the request.
type TaskService struct {
	tasks           TaskRepository
	classifier      TaskClassifier
	classifyTimeout time.Duration
	logger          *slog.Logger
}

// NewTaskService creates a new TaskService. classifier may be nil, in which
// case every new task gets the default classification and status failed.
func NewTaskService(tasks TaskRepository, classifier TaskClassifier, classifyTimeout time.Duration, logger *slog.Logger) *TaskService {
	return &TaskService{
		tasks:           tasks,
		classifier:      classifier,
		classifyTimeout: classifyTimeout,
		logger:          logger,
	}
}

// Create stores a new task for ownerID after classifying it
func (s *TaskService) Create(ctx context.Context, ownerID, title string, description *string) (*models.Task, error) {
	task := &models.Task{
		OwnerID:     ownerID,
		Title:       title,
		Description: description,
		Status:      models.TaskStatusProcessing,
	}

	s.classify(ctx, task)

	created, err := s.tasks.Create(ctx, task)
	if err != nil {
		s.logger.Error("failed to create task", slog.String("owner_id", ownerID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return created, nil
}

// classify fills in the classification and moves the task to pending, or to
// failed with DefaultTaskClassification when the classifier errors. Completed
// tasks are left alone.
func (s *TaskService) classify(ctx context.Context, task *models.Task) {
	if task.Status == models.TaskStatusCompleted {
		return
	}

	var description string
	if task.Description != nil {
		description = *task.Description
	}

	result, err := s.runClassifier(ctx, task.Title, description)
	if err != nil {
		s.logger.Warn("task classification failed, using defaults",
			slog.String("owner_id", task.OwnerID),
			slog.Any("error", err),
		)
		models.DefaultTaskClassification.Apply(task)
		task.Status = models.TaskStatusFailed
		return
	}

	result.Apply(task)
	task.Status = models.TaskStatusPending
}

func (s *TaskService) runClassifier(ctx context.Context, title, description string) (models.TaskClassification, error) {
	if s.classifier == nil {
		return models.TaskClassification{}, errClassifierUnavailable
	}

	if s.classifyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.classifyTimeout)
		defer cancel()
	}

	return s.classifier.ClassifyTask(ctx, title, description)
}

// Get returns one of ownerID's tasks, or models.ErrNotFound
func (s *TaskService) Get(ctx context.Context, ownerID, id string) (*models.Task, error) {
	task, err := s.tasks.GetByID(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to load task", slog.String("task_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return task, nil
}

// List returns a page of ownerID's tasks. limit is clamped to MaxTaskPageSize;
// zero or negative means DefaultTaskPageSize.
func (s *TaskService) List(ctx context.Context, ownerID string, limit, offset int) ([]*models.Task, error) {
	if limit <= 0 {
		limit = DefaultTaskPageSize
	}
	limit = min(limit, MaxTaskPageSize)
	offset = max(offset, 0)

	tasks, err := s.tasks.ListByOwner(ctx, ownerID, limit, offset)
	if err != nil {
		s.logger.Error("failed to list tasks", slog.String("owner_id", ownerID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return tasks, nil
}

// Update applies a partial update. Invalid values return an error wrapping
// models.ErrBadRequest; unknown tasks return models.ErrNotFound.
func (s *TaskService) Update(ctx context.Context, ownerID, id string, update models.TaskUpdate) (*models.Task, error) {
	if err := validateTaskUpdate(update); err != nil {
		return nil, err
	}

	task, err := s.tasks.Update(ctx, ownerID, id, update)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to update task", slog.String("task_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return task, nil
}

func validateTaskUpdate(update models.TaskUpdate) error {
	if update.Status != nil && !update.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", models.ErrBadRequest, *update.Status)
	}
	if d := update.EstimatedDuration; d != nil && (*d < 1 || *d > models.MaxEstimatedDuration) {
		return fmt.Errorf("%w: estimated_duration must be between 1 and %d", models.ErrBadRequest, models.MaxEstimatedDuration)
	}
	if p := update.Priority; p != nil && (*p == "" || len(*p) > 16) {
		return fmt.Errorf("%w: priority must be 1 to 16 characters", models.ErrBadRequest)
	}
	if c := update.Category; c != nil && (*c == "" || len(*c) > 120) {
		return fmt.Errorf("%w: category must be 1 to 120 characters", models.ErrBadRequest)
	}
	return nil
}
