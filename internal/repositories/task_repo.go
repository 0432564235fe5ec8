package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/BradenHooton/taskdesk/internal/database"
	"github.com/BradenHooton/taskdesk/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const taskColumns = `id, owner_id, title, description, status, category, priority, estimated_duration, created_at, updated_at`

// TaskRepository stores tasks. Every lookup is scoped to the owning user, so a
// task belonging to someone else reads as models.ErrNotFound.
type TaskRepository struct {
	pool *pgxpool.Pool
}

func NewTaskRepository(db *database.DB) *TaskRepository {
	return &TaskRepository{pool: db.Pool}
}

func scanTaskRow(scanner rowScanner) (*models.Task, error) {
	var (
		task   models.Task
		status string
	)

	err := scanner.Scan(
		&task.ID, &task.OwnerID, &task.Title, &task.Description, &status,
		&task.Category, &task.Priority, &task.EstimatedDuration,
		&task.CreatedAt, &task.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	task.Status = models.TaskStatus(status)
	return &task, nil
}

func (r *TaskRepository) Create(ctx context.Context, task *models.Task) (*models.Task, error) {
	task.ID = uuid.New().String()

	now := time.Now()
	task.CreatedAt = now
	task.UpdatedAt = now

	if task.Status == "" {
		task.Status = models.TaskStatusPending
	}

	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + taskColumns

	return scanTaskRow(r.pool.QueryRow(ctx, query,
		task.ID, task.OwnerID, task.Title, task.Description, string(task.Status),
		task.Category, task.Priority, task.EstimatedDuration,
		task.CreatedAt, task.UpdatedAt,
	))
}

func (r *TaskRepository) GetByID(ctx context.Context, ownerID, id string) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND owner_id = $2`
	return scanTaskRow(r.pool.QueryRow(ctx, query, id, ownerID))
}

// ListByOwner returns the owner's tasks, newest first
func (r *TaskRepository) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*models.Task, error) {
	query := `
		SELECT ` + taskColumns + ` FROM tasks
		WHERE owner_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	defer rows.Close()

	tasks := make([]*models.Task, 0)
	for rows.Next() {
		task, err := scanTaskRow(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", database.MapPostgresError(err))
	}

	return tasks, nil
}

// Update applies the non-nil fields of update and bumps updated_at
func (r *TaskRepository) Update(ctx context.Context, ownerID, id string, update models.TaskUpdate) (*models.Task, error) {
	var status *string
	if update.Status != nil {
		s := string(*update.Status)
		status = &s
	}

	query := `
		UPDATE tasks SET
			status             = COALESCE($1, status),
			category           = COALESCE($2, category),
			priority           = COALESCE($3, priority),
			estimated_duration = COALESCE($4, estimated_duration),
			updated_at         = $5
		WHERE id = $6 AND owner_id = $7
		RETURNING ` + taskColumns

	return scanTaskRow(r.pool.QueryRow(ctx, query,
		status, update.Category, update.Priority, update.EstimatedDuration,
		time.Now(), id, ownerID,
	))
}
