package model

import "time"

const (
	ProjectStatusActive    = "active"
	ProjectStatusCompleted = "completed"
	ProjectStatusArchived  = "archived"
)

type Project struct {
	ID          int64      `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	Description string     `json:"description" db:"description"`
	Status      string     `json:"status" db:"status"`
	OwnerID     *int64     `json:"owner_id,omitempty" db:"owner_id"`
	StartDate   *time.Time `json:"start_date,omitempty" db:"start_date"`
	DueDate     *time.Time `json:"due_date,omitempty" db:"due_date"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

type ProjectFilter struct {
	Status  string
	OwnerID *int64
	Query   string
	Page
}

func ValidProjectStatus(s string) bool {
	switch s {
	case ProjectStatusActive, ProjectStatusCompleted, ProjectStatusArchived:
		return true
	}
	return false
}
