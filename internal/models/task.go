package models

import "time"

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// Valid reports whether s is one of the known statuses
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusProcessing, TaskStatusCompleted, TaskStatusFailed:
		return true
	}
	return false
}

// MaxEstimatedDuration is one week in minutes
const MaxEstimatedDuration = 10080

type Task struct {
	ID                string     `json:"id"`
	OwnerID           string     `json:"owner_id"`
	Title             string     `json:"title"`
	Description       *string    `json:"description"`
	Status            TaskStatus `json:"status"`
	Category          *string    `json:"category"`
	Priority          *string    `json:"priority"`
	EstimatedDuration *int       `json:"estimated_duration"` // minutes
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// TaskUpdate is a partial update; nil fields are left unchanged
type TaskUpdate struct {
	Status            *TaskStatus
	Category          *string
	Priority          *string
	EstimatedDuration *int
}

// TaskClassification is what a classifier assigns to a new task
type TaskClassification struct {
	Category          string `json:"category"`
	Priority          string `json:"priority"`
	EstimatedDuration int    `json:"estimated_duration"`
}

// DefaultTaskClassification is applied when classification fails
var DefaultTaskClassification = TaskClassification{
	Category:          "general",
	Priority:          "medium",
	EstimatedDuration: 30,
}

// Apply copies the classification onto t
func (c TaskClassification) Apply(t *Task) {
	category, priority, duration := c.Category, c.Priority, c.EstimatedDuration
	t.Category = &category
	t.Priority = &priority
	t.EstimatedDuration = &duration
}
