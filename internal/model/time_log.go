package model

import "time"

type TimeLog struct {
	ID          int64      `json:"id" db:"id"`
	UserID      int64      `json:"user_id" db:"user_id"`
	TaskID      *int64     `json:"task_id,omitempty" db:"task_id"`
	StartedAt   time.Time  `json:"started_at" db:"started_at"`
	EndedAt     *time.Time `json:"ended_at,omitempty" db:"ended_at"`
	Minutes     int        `json:"minutes" db:"minutes"`
	Description string     `json:"description" db:"description"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

// Running reports whether the log is an active timer.
func (l TimeLog) Running() bool {
	return l.EndedAt == nil
}

type TimeLogFilter struct {
	UserID *int64
	TaskID *int64
	From   *time.Time
	To     *time.Time
	Page
}

// TimeSummary totals minutes logged by one user over a range.
type TimeSummary struct {
	UserID       int64         `json:"user_id"`
	TotalMinutes int           `json:"total_minutes"`
	ByTask       []TaskMinutes `json:"by_task"`
	From         *time.Time    `json:"from,omitempty"`
	To           *time.Time    `json:"to,omitempty"`
}

type TaskMinutes struct {
	TaskID  *int64 `json:"task_id" db:"task_id"`
	Title   string `json:"title" db:"title"`
	Minutes int    `json:"minutes" db:"minutes"`
}
