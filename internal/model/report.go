package model

import "time"

// HoursRow is one group of an hours report.
type HoursRow struct {
	GroupID   *int64 `json:"group_id" db:"group_id"`
	GroupName string `json:"group_name" db:"group_name"`
	Minutes   int    `json:"minutes" db:"minutes"`
	Entries   int    `json:"entries" db:"entries"`
}

type HoursReport struct {
	GroupBy string     `json:"group_by"`
	From    *time.Time `json:"from,omitempty"`
	To      *time.Time `json:"to,omitempty"`
	Rows    []HoursRow `json:"rows"`
}

type Dashboard struct {
	UserID              *int64         `json:"user_id,omitempty"`
	TasksByStatus       map[string]int `json:"tasks_by_status"`
	MinutesThisWeek     int            `json:"minutes_this_week"`
	PendingDeliverables int            `json:"pending_deliverables"`
	OpenListItems       int            `json:"open_list_items"`
}
