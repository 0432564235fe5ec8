package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/BradenHooton/taskdesk/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testOwnerID = "9c1d4c4e-2f0b-4a57-9d36-7b0e2c6f1a11"

// echoCreate returns the task it was given, as the repository would after insert
func echoCreate(ctx context.Context, task *models.Task) (*models.Task, error) {
	copied := *task
	copied.ID = "task-1"
	return &copied, nil
}

func stubClassifier(result models.TaskClassification, err error) *MockTaskClassifier {
	return &MockTaskClassifier{
		ClassifyTaskFunc: func(ctx context.Context, title, description string) (models.TaskClassification, error) {
			return result, err
		},
	}
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

// ============================================================================
// Create
// ============================================================================

func TestTaskService_Create_Classified(t *testing.T) {
	var gotTitle, gotDescription string
	classifier := &MockTaskClassifier{
		ClassifyTaskFunc: func(ctx context.Context, title, description string) (models.TaskClassification, error) {
			gotTitle, gotDescription = title, description
			return models.TaskClassification{Category: "testing", Priority: "low", EstimatedDuration: 5}, nil
		},
	}
	svc := NewTaskService(&MockTaskRepository{CreateFunc: echoCreate}, classifier, time.Second, discardLogger())

	task, err := svc.Create(context.Background(), testOwnerID, "Write tests", strPtr("Add coverage"))

	require.NoError(t, err)
	assert.Equal(t, "Write tests", gotTitle)
	assert.Equal(t, "Add coverage", gotDescription)
	assert.Equal(t, testOwnerID, task.OwnerID)
	assert.Equal(t, models.TaskStatusPending, task.Status)
	assert.Equal(t, "testing", *task.Category)
	assert.Equal(t, "low", *task.Priority)
	assert.Equal(t, 5, *task.EstimatedDuration)
}

func TestTaskService_Create_ClassifierErrorUsesDefaults(t *testing.T) {
	svc := NewTaskService(
		&MockTaskRepository{CreateFunc: echoCreate},
		stubClassifier(models.TaskClassification{}, errors.New("upstream 503")),
		time.Second,
		discardLogger(),
	)

	task, err := svc.Create(context.Background(), testOwnerID, "Fallback", nil)

	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusFailed, task.Status)
	assert.Equal(t, "general", *task.Category)
	assert.Equal(t, "medium", *task.Priority)
	assert.Equal(t, 30, *task.EstimatedDuration)
}

func TestTaskService_Create_NoClassifierUsesDefaults(t *testing.T) {
	svc := NewTaskService(&MockTaskRepository{CreateFunc: echoCreate}, nil, time.Second, discardLogger())

	task, err := svc.Create(context.Background(), testOwnerID, "No provider", nil)

	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusFailed, task.Status)
	assert.Equal(t, "general", *task.Category)
}

func TestTaskService_Create_ClassifierGetsDeadline(t *testing.T) {
	var hadDeadline bool
	classifier := &MockTaskClassifier{
		ClassifyTaskFunc: func(ctx context.Context, title, description string) (models.TaskClassification, error) {
			_, hadDeadline = ctx.Deadline()
			return models.DefaultTaskClassification, nil
		},
	}
	svc := NewTaskService(&MockTaskRepository{CreateFunc: echoCreate}, classifier, 10*time.Second, discardLogger())

	_, err := svc.Create(context.Background(), testOwnerID, "Deadline", nil)

	require.NoError(t, err)
	assert.True(t, hadDeadline)
}

func TestTaskService_Create_DefaultsAreNotShared(t *testing.T) {
	svc := NewTaskService(&MockTaskRepository{CreateFunc: echoCreate}, nil, time.Second, discardLogger())

	first, err := svc.Create(context.Background(), testOwnerID, "One", nil)
	require.NoError(t, err)
	*first.Category = "mutated"

	second, err := svc.Create(context.Background(), testOwnerID, "Two", nil)
	require.NoError(t, err)
	assert.Equal(t, "general", *second.Category)
	assert.Equal(t, "general", models.DefaultTaskClassification.Category)
}

func TestTaskService_Create_RepositoryError(t *testing.T) {
	repo := &MockTaskRepository{
		CreateFunc: func(ctx context.Context, task *models.Task) (*models.Task, error) {
			return nil, errors.New("connection reset")
		},
	}
	svc := NewTaskService(repo, stubClassifier(models.DefaultTaskClassification, nil), time.Second, discardLogger())

	_, err := svc.Create(context.Background(), testOwnerID, "Broken", nil)

	assert.ErrorIs(t, err, models.ErrInternalServer)
}

func TestTaskService_ClassifySkipsCompletedTasks(t *testing.T) {
	called := false
	classifier := &MockTaskClassifier{
		ClassifyTaskFunc: func(ctx context.Context, title, description string) (models.TaskClassification, error) {
			called = true
			return models.DefaultTaskClassification, nil
		},
	}
	svc := NewTaskService(&MockTaskRepository{}, classifier, time.Second, discardLogger())

	task := &models.Task{Title: "Done already", Status: models.TaskStatusCompleted}
	svc.classify(context.Background(), task)

	assert.False(t, called)
	assert.Equal(t, models.TaskStatusCompleted, task.Status)
	assert.Nil(t, task.Category)
}

// ============================================================================
// Get / List
// ============================================================================

func TestTaskService_Get(t *testing.T) {
	repo := &MockTaskRepository{
		GetByIDFunc: func(ctx context.Context, ownerID, id string) (*models.Task, error) {
			if ownerID == testOwnerID && id == "task-1" {
				return &models.Task{ID: id, OwnerID: ownerID}, nil
			}
			return nil, models.ErrNotFound
		},
	}
	svc := NewTaskService(repo, nil, time.Second, discardLogger())

	task, err := svc.Get(context.Background(), testOwnerID, "task-1")
	require.NoError(t, err)
	assert.Equal(t, "task-1", task.ID)

	_, err = svc.Get(context.Background(), "someone-else", "task-1")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestTaskService_List_ClampsPaging(t *testing.T) {
	tests := []struct {
		name       string
		limit      int
		offset     int
		wantLimit  int
		wantOffset int
	}{
		{"defaults", 0, 0, DefaultTaskPageSize, 0},
		{"negative offset", 10, -5, 10, 0},
		{"over max", 1000, 20, MaxTaskPageSize, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotLimit, gotOffset int
			repo := &MockTaskRepository{
				ListByOwnerFunc: func(ctx context.Context, ownerID string, limit, offset int) ([]*models.Task, error) {
					gotLimit, gotOffset = limit, offset
					return []*models.Task{}, nil
				},
			}
			svc := NewTaskService(repo, nil, time.Second, discardLogger())

			_, err := svc.List(context.Background(), testOwnerID, tt.limit, tt.offset)

			require.NoError(t, err)
			assert.Equal(t, tt.wantLimit, gotLimit)
			assert.Equal(t, tt.wantOffset, gotOffset)
		})
	}
}

// ============================================================================
// Update
// ============================================================================

func TestTaskService_Update_PassesPartialUpdate(t *testing.T) {
	var got models.TaskUpdate
	repo := &MockTaskRepository{
		UpdateFunc: func(ctx context.Context, ownerID, id string, update models.TaskUpdate) (*models.Task, error) {
			got = update
			return &models.Task{ID: id, Priority: update.Priority}, nil
		},
	}
	svc := NewTaskService(repo, nil, time.Second, discardLogger())

	task, err := svc.Update(context.Background(), testOwnerID, "task-1", models.TaskUpdate{Priority: strPtr("urgent")})

	require.NoError(t, err)
	assert.Equal(t, "urgent", *task.Priority)
	assert.Nil(t, got.Status)
	assert.Nil(t, got.EstimatedDuration)
}

func TestTaskService_Update_RejectsInvalidValues(t *testing.T) {
	bogus := models.TaskStatus("invalid")
	tests := []struct {
		name   string
		update models.TaskUpdate
	}{
		{"unknown status", models.TaskUpdate{Status: &bogus}},
		{"zero duration", models.TaskUpdate{EstimatedDuration: intPtr(0)}},
		{"duration over a week", models.TaskUpdate{EstimatedDuration: intPtr(10081)}},
		{"empty priority", models.TaskUpdate{Priority: strPtr("")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &MockTaskRepository{
				UpdateFunc: func(ctx context.Context, ownerID, id string, update models.TaskUpdate) (*models.Task, error) {
					t.Fatal("repository must not be called for an invalid update")
					return nil, nil
				},
			}
			svc := NewTaskService(repo, nil, time.Second, discardLogger())

			_, err := svc.Update(context.Background(), testOwnerID, "task-1", tt.update)

			assert.ErrorIs(t, err, models.ErrBadRequest)
		})
	}
}

func TestTaskService_Update_NotFound(t *testing.T) {
	svc := NewTaskService(&MockTaskRepository{}, nil, time.Second, discardLogger())
	status := models.TaskStatusProcessing

	_, err := svc.Update(context.Background(), testOwnerID, "missing", models.TaskUpdate{Status: &status})

	assert.ErrorIs(t, err, models.ErrNotFound)
}
