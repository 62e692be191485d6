package service

import (
	"context"
	"time"

	"interntrack/internal/model"
	"interntrack/pkg/outbox"
)

type UserStore interface {
	Create(ctx context.Context, u *model.User) (*model.User, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, f model.UserFilter) ([]model.User, error)
	Update(ctx context.Context, u *model.User) (*model.User, error)
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
}

type ProjectStore interface {
	Create(ctx context.Context, p *model.Project) (*model.Project, error)
	GetByID(ctx context.Context, id int64) (*model.Project, error)
	List(ctx context.Context, f model.ProjectFilter) ([]model.Project, error)
	Update(ctx context.Context, p *model.Project) (*model.Project, error)
	Delete(ctx context.Context, id int64) error
}

type TaskStore interface {
	Create(ctx context.Context, t *model.Task) (*model.Task, error)
	GetByID(ctx context.Context, id int64) (*model.Task, error)
	List(ctx context.Context, f model.TaskFilter) ([]model.Task, error)
	Update(ctx context.Context, t *model.Task) (*model.Task, error)
	Delete(ctx context.Context, id int64) error
	MarkOverdue(ctx context.Context, today time.Time) ([]model.Task, error)
	CountByStatus(ctx context.Context, assigneeID *int64) (map[string]int, error)
}

type TimeLogStore interface {
	Create(ctx context.Context, l *model.TimeLog) (*model.TimeLog, error)
	GetByID(ctx context.Context, id int64) (*model.TimeLog, error)
	List(ctx context.Context, f model.TimeLogFilter) ([]model.TimeLog, error)
	Update(ctx context.Context, l *model.TimeLog) (*model.TimeLog, error)
	Delete(ctx context.Context, id int64) error
	Running(ctx context.Context, userID int64) (*model.TimeLog, error)
	StaleRunning(ctx context.Context, cutoff time.Time) ([]model.TimeLog, error)
	Summary(ctx context.Context, userID int64, from, to *time.Time) ([]model.TaskMinutes, error)
	MinutesSince(ctx context.Context, userID *int64, since time.Time) (int, error)
}

type DeliverableStore interface {
	Create(ctx context.Context, d *model.Deliverable) (*model.Deliverable, error)
	GetByID(ctx context.Context, id int64) (*model.Deliverable, error)
	List(ctx context.Context, f model.DeliverableFilter) ([]model.Deliverable, error)
	Update(ctx context.Context, d *model.Deliverable) (*model.Deliverable, error)
	Delete(ctx context.Context, id int64) error
	CountByStatus(ctx context.Context, status string, userID *int64) (int, error)
}

type NoteStore interface {
	Create(ctx context.Context, n *model.Note) (*model.Note, error)
	GetByID(ctx context.Context, id int64) (*model.Note, error)
	List(ctx context.Context, f model.NoteFilter) ([]model.Note, error)
	Update(ctx context.Context, n *model.Note) (*model.Note, error)
	Delete(ctx context.Context, id int64) error
}

type ListItemStore interface {
	Create(ctx context.Context, item *model.ListItem) (*model.ListItem, error)
	GetByID(ctx context.Context, id int64) (*model.ListItem, error)
	List(ctx context.Context, f model.ListItemFilter) ([]model.ListItem, error)
	Update(ctx context.Context, item *model.ListItem) (*model.ListItem, error)
	Delete(ctx context.Context, id int64) error
	SetPosition(ctx context.Context, userID, id int64, position int) (bool, error)
	ClearDone(ctx context.Context, userID int64) (int64, error)
	CountOpen(ctx context.Context, userID *int64) (int, error)
}

type ActivityStore interface {
	Insert(ctx context.Context, a *model.Activity) (bool, error)
	List(ctx context.Context, f model.ActivityFilter) ([]model.Activity, error)
}

type ReportStore interface {
	Hours(ctx context.Context, groupBy string, from, to *time.Time) ([]model.HoursRow, error)
}

// EventRecorder appends a domain event to the outbox.
type EventRecorder interface {
	Record(ctx context.Context, msg outbox.Message) error
}

// TxRunner runs fn inside one database transaction.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// FocusCache stores Smart Focus results per user.
type FocusCache interface {
	Get(ctx context.Context, userID int64) (*model.SmartFocus, error)
	Set(ctx context.Context, focus *model.SmartFocus) error
	Invalidate(ctx context.Context, userIDs ...int64) error
}
