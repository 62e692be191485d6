package model

import "time"

const (
	FocusSourceLLM       = "llm"
	FocusSourceHeuristic = "heuristic"
)

type FocusSuggestion struct {
	TaskID   int64      `json:"task_id"`
	Title    string     `json:"title"`
	Reason   string     `json:"reason"`
	Priority string     `json:"priority"`
	DueDate  *time.Time `json:"due_date,omitempty"`
	Score    int        `json:"score,omitempty"`
}

type SmartFocus struct {
	UserID      int64             `json:"user_id"`
	Summary     string            `json:"summary"`
	Suggestions []FocusSuggestion `json:"suggestions"`
	Source      string            `json:"source"`
	Cached      bool              `json:"cached"`
	GeneratedAt time.Time         `json:"generated_at"`
}
