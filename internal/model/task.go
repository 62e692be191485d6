package model

import "time"

const (
	TaskStatusPending    = "pending"
	TaskStatusInProgress = "in_progress"
	TaskStatusCompleted  = "completed"
	TaskStatusOverdue    = "overdue"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

type Task struct {
	ID             int64      `json:"id" db:"id"`
	ProjectID      *int64     `json:"project_id,omitempty" db:"project_id"`
	AssigneeID     *int64     `json:"assignee_id,omitempty" db:"assignee_id"`
	CreatedBy      *int64     `json:"created_by,omitempty" db:"created_by"`
	Title          string     `json:"title" db:"title"`
	Description    string     `json:"description" db:"description"`
	Status         string     `json:"status" db:"status"`
	Priority       string     `json:"priority" db:"priority"`
	DueDate        *time.Time `json:"due_date,omitempty" db:"due_date"`
	EstimatedHours *float64   `json:"estimated_hours,omitempty" db:"estimated_hours"`
	CompletedAt    *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// Open reports whether the task still needs work.
func (t Task) Open() bool {
	return t.Status != TaskStatusCompleted
}

type TaskFilter struct {
	Statuses   []string
	Priority   string
	ProjectID  *int64
	AssigneeID *int64
	DueBefore  *time.Time
	DueAfter   *time.Time
	Query      string
	Sort       string
	Page
}

func ValidTaskStatus(s string) bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted, TaskStatusOverdue:
		return true
	}
	return false
}

func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}
