package model

import "time"

type Note struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	TaskID    *int64    `json:"task_id,omitempty" db:"task_id"`
	ProjectID *int64    `json:"project_id,omitempty" db:"project_id"`
	Title     string    `json:"title" db:"title"`
	Body      string    `json:"body" db:"body"`
	Pinned    bool      `json:"pinned" db:"pinned"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type NoteFilter struct {
	UserID    *int64
	TaskID    *int64
	ProjectID *int64
	Pinned    *bool
	Query     string
	Page
}
