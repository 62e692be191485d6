package model

import "time"

const (
	DeliverableSubmitted        = "submitted"
	DeliverableApproved         = "approved"
	DeliverableChangesRequested = "changes_requested"
)

type Deliverable struct {
	ID          int64      `json:"id" db:"id"`
	UserID      int64      `json:"user_id" db:"user_id"`
	TaskID      *int64     `json:"task_id,omitempty" db:"task_id"`
	ProjectID   *int64     `json:"project_id,omitempty" db:"project_id"`
	Title       string     `json:"title" db:"title"`
	URL         string     `json:"url" db:"url"`
	Description string     `json:"description" db:"description"`
	Status      string     `json:"status" db:"status"`
	Feedback    string     `json:"feedback" db:"feedback"`
	ReviewedBy  *int64     `json:"reviewed_by,omitempty" db:"reviewed_by"`
	ReviewedAt  *time.Time `json:"reviewed_at,omitempty" db:"reviewed_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

type DeliverableFilter struct {
	Status    string
	UserID    *int64
	ProjectID *int64
	TaskID    *int64
	Page
}

// ValidReviewStatus reports whether s is a status a reviewer may set.
func ValidReviewStatus(s string) bool {
	return s == DeliverableApproved || s == DeliverableChangesRequested
}
