package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"interntrack/internal/model"
	"interntrack/pkg/metrics"
	"interntrack/pkg/outbox"
	"interntrack/pkg/rbac"
)

// TaskInput carries task fields from forms and JSON; nil fields are left unchanged.
type TaskInput struct {
	Title          *string  `json:"title" form:"title"`
	Description    *string  `json:"description" form:"description"`
	Status         *string  `json:"status" form:"status"`
	Priority       *string  `json:"priority" form:"priority"`
	ProjectID      *int64   `json:"project_id" form:"project_id"`
	AssigneeID     *int64   `json:"assignee_id" form:"assignee_id"`
	DueDate        *string  `json:"due_date" form:"due_date"`
	EstimatedHours *float64 `json:"estimated_hours" form:"estimated_hours"`
}

type TaskService struct {
	tasks  TaskStore
	tx     TxRunner
	events EventRecorder
	focus  FocusCache
	logger *zap.Logger
	now    func() time.Time
}

func NewTaskService(tasks TaskStore, tx TxRunner, events EventRecorder, focus FocusCache, logger *zap.Logger) *TaskService {
	return &TaskService{tasks: tasks, tx: tx, events: events, focus: focus, logger: logger, now: time.Now}
}

// List returns tasks matching f. Interns only ever see their own assignments.
func (s *TaskService) List(ctx context.Context, actor model.Actor, f model.TaskFilter) ([]model.Task, error) {
	if !actor.Can(rbac.PermissionReadTask) {
		return nil, ErrForbidden
	}
	for _, st := range f.Statuses {
		if !model.ValidTaskStatus(st) {
			return nil, invalid("unknown status %q", st)
		}
	}
	if f.Priority != "" && !model.ValidPriority(f.Priority) {
		return nil, invalid("unknown priority %q", f.Priority)
	}
	if !actor.Can(rbac.PermissionManageTasks) {
		f.AssigneeID = &actor.UserID
	}
	list, err := s.tasks.List(ctx, f)
	return list, storeErr(err)
}

func (s *TaskService) Get(ctx context.Context, actor model.Actor, id int64) (*model.Task, error) {
	t, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}
	if !s.canSee(actor, t) {
		return nil, ErrForbidden
	}
	return t, nil
}

func (s *TaskService) Create(ctx context.Context, actor model.Actor, in TaskInput) (*model.Task, error) {
	if !actor.Can(rbac.PermissionManageTasks) {
		return nil, ErrForbidden
	}
	if in.Title == nil {
		return nil, invalid("title is required")
	}
	t := &model.Task{
		Status:    model.TaskStatusPending,
		Priority:  model.PriorityMedium,
		CreatedBy: &actor.UserID,
	}
	if err := s.apply(t, in); err != nil {
		return nil, err
	}

	var created *model.Task
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if created, err = s.tasks.Create(ctx, t); err != nil {
			return err
		}
		return s.record(ctx, actor, EventTaskCreated, created)
	})
	if err != nil {
		return nil, storeErr(err)
	}

	metrics.IncrementEntityMutation("task", "create")
	s.invalidate(ctx, created.AssigneeID)
	s.logger.Info("Task created",
		zap.Int64("task_id", created.ID),
		zap.Int64("actor_id", actor.UserID),
	)
	return created, nil
}

func (s *TaskService) Update(ctx context.Context, actor model.Actor, id int64, in TaskInput) (*model.Task, error) {
	if !actor.Can(rbac.PermissionManageTasks) {
		return nil, ErrForbidden
	}
	return s.mutate(ctx, actor, id, EventTaskUpdated, func(t *model.Task) error {
		return s.apply(t, in)
	})
}

// Assign sets or clears the assignee.
func (s *TaskService) Assign(ctx context.Context, actor model.Actor, id int64, assigneeID *int64) (*model.Task, error) {
	if !actor.Can(rbac.PermissionManageTasks) {
		return nil, ErrForbidden
	}
	return s.mutate(ctx, actor, id, EventTaskUpdated, func(t *model.Task) error {
		t.AssigneeID = assigneeID
		return nil
	})
}

// ChangeStatus is allowed for the assignee and for admins.
func (s *TaskService) ChangeStatus(ctx context.Context, actor model.Actor, id int64, status string) (*model.Task, error) {
	if !actor.Can(rbac.PermissionUpdateTask) {
		return nil, ErrForbidden
	}
	if !model.ValidTaskStatus(status) {
		return nil, invalid("unknown status %q", status)
	}
	return s.mutate(ctx, actor, id, statusEvent(status), func(t *model.Task) error {
		if !s.canSee(actor, t) {
			return ErrForbidden
		}
		s.setStatus(t, status)
		return nil
	})
}

func (s *TaskService) Delete(ctx context.Context, actor model.Actor, id int64) error {
	if !actor.Can(rbac.PermissionManageTasks) {
		return ErrForbidden
	}
	var assignee *int64
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		t, err := s.tasks.GetByID(ctx, id)
		if err != nil {
			return err
		}
		assignee = t.AssigneeID
		if err := s.tasks.Delete(ctx, id); err != nil {
			return err
		}
		return s.record(ctx, actor, EventTaskDeleted, t)
	})
	if err != nil {
		return storeErr(err)
	}
	metrics.IncrementEntityMutation("task", "delete")
	s.invalidate(ctx, assignee)
	s.logger.Info("Task deleted",
		zap.Int64("task_id", id),
		zap.Int64("actor_id", actor.UserID),
	)
	return nil
}

// mutate loads, changes, saves and records one task inside a transaction.
func statusEvent(status string) string {
	if status == model.TaskStatusCompleted {
		return EventTaskCompleted
	}
	return EventTaskStatusChanged
}

func (s *TaskService) mutate(ctx context.Context, actor model.Actor, id int64, event string, change func(*model.Task) error) (*model.Task, error) {
	var before *int64
	var updated *model.Task
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		t, err := s.tasks.GetByID(ctx, id)
		if err != nil {
			return err
		}
		before = t.AssigneeID
		prevStatus := t.Status
		if err := change(t); err != nil {
			return err
		}
		// an edit that moves the status publishes the same key as ChangeStatus
		if event == EventTaskUpdated && t.Status != prevStatus {
			event = statusEvent(t.Status)
		}
		if updated, err = s.tasks.Update(ctx, t); err != nil {
			return err
		}
		return s.record(ctx, actor, event, updated)
	})
	if err != nil {
		return nil, storeErr(err)
	}

	metrics.IncrementEntityMutation("task", "update")
	s.invalidate(ctx, before, updated.AssigneeID)
	s.logger.Info("Task updated",
		zap.Int64("task_id", id),
		zap.String("event", event),
		zap.String("status", updated.Status),
	)
	return updated, nil
}

func (s *TaskService) apply(t *model.Task, in TaskInput) error {
	if in.Title != nil {
		title, err := requireTitle("title", *in.Title)
		if err != nil {
			return err
		}
		t.Title = title
	}
	if in.Description != nil {
		t.Description = strings.TrimSpace(*in.Description)
	}
	if in.Priority != nil {
		if !model.ValidPriority(*in.Priority) {
			return invalid("unknown priority %q", *in.Priority)
		}
		t.Priority = *in.Priority
	}
	if in.Status != nil {
		if !model.ValidTaskStatus(*in.Status) {
			return invalid("unknown status %q", *in.Status)
		}
		s.setStatus(t, *in.Status)
	}
	if in.ProjectID != nil {
		t.ProjectID = nonZero(in.ProjectID)
	}
	if in.AssigneeID != nil {
		t.AssigneeID = nonZero(in.AssigneeID)
	}
	if in.DueDate != nil {
		d, err := ParseDate(*in.DueDate)
		if err != nil {
			return err
		}
		t.DueDate = d
	}
	if in.EstimatedHours != nil {
		if *in.EstimatedHours < 0 {
			return invalid("estimated_hours must not be negative")
		}
		t.EstimatedHours = in.EstimatedHours
	}
	return nil
}

// setStatus stamps completed_at when a task is completed and clears it otherwise.
func (s *TaskService) setStatus(t *model.Task, status string) {
	if status == model.TaskStatusCompleted && t.Status != model.TaskStatusCompleted {
		t.CompletedAt = ptr(s.now())
	}
	if status != model.TaskStatusCompleted {
		t.CompletedAt = nil
	}
	t.Status = status
}

func (s *TaskService) canSee(actor model.Actor, t *model.Task) bool {
	if actor.Can(rbac.PermissionManageTasks) {
		return true
	}
	return t.AssigneeID != nil && *t.AssigneeID == actor.UserID
}

func (s *TaskService) record(ctx context.Context, actor model.Actor, key string, t *model.Task) error {
	return s.events.Record(ctx, outbox.Message{
		RoutingKey: key,
		ActorID:    actor.UserID,
		Entity:     "task",
		EntityID:   t.ID,
		Data: map[string]any{
			"title":       t.Title,
			"status":      t.Status,
			"priority":    t.Priority,
			"assignee_id": t.AssigneeID,
		},
	})
}

func (s *TaskService) invalidate(ctx context.Context, userIDs ...*int64) {
	if s.focus == nil {
		return
	}
	ids := make([]int64, 0, len(userIDs))
	for _, id := range userIDs {
		if id != nil {
			ids = append(ids, *id)
		}
	}
	if err := s.focus.Invalidate(ctx, ids...); err != nil {
		s.logger.Warn("Failed to invalidate smart focus cache", zap.Error(err))
	}
}

// nonZero maps a submitted 0 (empty form select) to NULL.
func nonZero(id *int64) *int64 {
	if id == nil || *id == 0 {
		return nil
	}
	return id
}
