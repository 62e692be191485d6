package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"interntrack/internal/model"
)

var taskColumns = []string{
	"id", "project_id", "assignee_id", "created_by", "title", "description",
	"status", "priority", "due_date", "estimated_hours", "completed_at",
	"created_at", "updated_at",
}

const priorityRank = "CASE priority WHEN 'urgent' THEN 0 WHEN 'high' THEN 1 WHEN 'medium' THEN 2 ELSE 3 END"

const overdueFirst = "CASE WHEN status = 'overdue' OR due_date < CURRENT_DATE THEN 0 ELSE 1 END"

var taskSorts = map[string][]string{
	"due":      {"due_date ASC NULLS LAST", "id"},
	"focus":    {overdueFirst, "due_date ASC NULLS LAST", priorityRank, "id"},
	"priority": {priorityRank, "due_date ASC NULLS LAST", "id"},
	"created":  {"created_at DESC", "id DESC"},
	"title":    {"title", "id"},
}

type TaskRepository struct {
	table[model.Task]
}

func NewTaskRepository(pool *pgxpool.Pool, logger *zap.Logger) *TaskRepository {
	return &TaskRepository{newTable[model.Task](pool, logger, "tasks", taskColumns...)}
}

func (r *TaskRepository) Create(ctx context.Context, t *model.Task) (*model.Task, error) {
	b := InsertInto(r.name).
		Set("project_id", t.ProjectID).
		Set("assignee_id", t.AssigneeID).
		Set("created_by", t.CreatedBy).
		Set("title", t.Title).
		Set("description", t.Description).
		Set("status", t.Status).
		Set("priority", t.Priority).
		Set("due_date", t.DueDate).
		Set("estimated_hours", t.EstimatedHours).
		Set("completed_at", t.CompletedAt)
	return r.insert(ctx, b)
}

func (r *TaskRepository) GetByID(ctx context.Context, id int64) (*model.Task, error) {
	return r.get(ctx, id)
}

func (r *TaskRepository) filter(f model.TaskFilter) *SelectBuilder {
	b := r.selectAll().
		WhereIf(len(f.Statuses) > 0, "status", "IN", f.Statuses).
		WhereIf(f.Priority != "", "priority", "=", f.Priority).
		WhereIf(f.ProjectID != nil, "project_id", "=", f.ProjectID).
		WhereIf(f.AssigneeID != nil, "assignee_id", "=", f.AssigneeID).
		WhereIf(f.DueBefore != nil, "due_date", "<=", f.DueBefore).
		WhereIf(f.DueAfter != nil, "due_date", ">=", f.DueAfter)
	if f.Query != "" {
		b.WhereAny([]string{"title", "description"}, "ILIKE", likePattern(f.Query))
	}
	return b
}

// List returns tasks matching f; unknown sort keys fall back to newest first.
func (r *TaskRepository) List(ctx context.Context, f model.TaskFilter) ([]model.Task, error) {
	p := f.Page.Normalize()
	order, ok := taskSorts[f.Sort]
	if !ok {
		order = taskSorts["created"]
	}
	return r.find(ctx, page(r.filter(f).OrderBy(order...), p.Limit, p.Offset))
}

func (r *TaskRepository) Update(ctx context.Context, t *model.Task) (*model.Task, error) {
	b := Update(r.name).
		Set("project_id", t.ProjectID).
		Set("assignee_id", t.AssigneeID).
		Set("title", t.Title).
		Set("description", t.Description).
		Set("status", t.Status).
		Set("priority", t.Priority).
		Set("due_date", t.DueDate).
		Set("estimated_hours", t.EstimatedHours).
		Set("completed_at", t.CompletedAt).
		SetRaw("updated_at", "NOW()")
	return r.update(ctx, t.ID, b)
}

func (r *TaskRepository) Delete(ctx context.Context, id int64) error {
	return r.remove(ctx, id)
}

// MarkOverdue flips open tasks due before today to overdue and returns them.
func (r *TaskRepository) MarkOverdue(ctx context.Context, today time.Time) ([]model.Task, error) {
	query, args := Update(r.name).
		Set("status", model.TaskStatusOverdue).
		SetRaw("updated_at", "NOW()").
		Where("status", "IN", []string{model.TaskStatusPending, model.TaskStatusInProgress}).
		Where("due_date", "<", today).
		Returning(r.columns...).
		Build()
	return r.many(ctx, "mark_overdue", query, args)
}

// CountByStatus groups task counts by status, optionally for one assignee.
func (r *TaskRepository) CountByStatus(ctx context.Context, assigneeID *int64) (map[string]int, error) {
	query, args := Select(r.name, "status", "COUNT(*)").
		WhereIf(assigneeID != nil, "assignee_id", "=", assigneeID).
		GroupBy("status").
		Build()

	ctx, done := r.observe(ctx, "count_by_status", args)
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, done(err)
	}
	defer rows.Close()

	counts := map[string]int{
		model.TaskStatusPending:    0,
		model.TaskStatusInProgress: 0,
		model.TaskStatusCompleted:  0,
		model.TaskStatusOverdue:    0,
	}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, done(err)
		}
		counts[status] = n
	}
	return counts, done(rows.Err())
}
