package model

import "time"

type ListItem struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	TaskID    *int64    `json:"task_id,omitempty" db:"task_id"`
	Content   string    `json:"content" db:"content"`
	Done      bool      `json:"done" db:"done"`
	Position  int       `json:"position" db:"position"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type ListItemFilter struct {
	UserID *int64
	TaskID *int64
	Done   *bool
	Page
}
