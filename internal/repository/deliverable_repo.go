package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"interntrack/internal/model"
)

var deliverableColumns = []string{
	"id", "user_id", "task_id", "project_id", "title", "url", "description",
	"status", "feedback", "reviewed_by", "reviewed_at", "created_at", "updated_at",
}

type DeliverableRepository struct {
	table[model.Deliverable]
}

func NewDeliverableRepository(pool *pgxpool.Pool, logger *zap.Logger) *DeliverableRepository {
	return &DeliverableRepository{newTable[model.Deliverable](pool, logger, "deliverables", deliverableColumns...)}
}

func (r *DeliverableRepository) Create(ctx context.Context, d *model.Deliverable) (*model.Deliverable, error) {
	b := InsertInto(r.name).
		Set("user_id", d.UserID).
		Set("task_id", d.TaskID).
		Set("project_id", d.ProjectID).
		Set("title", d.Title).
		Set("url", d.URL).
		Set("description", d.Description).
		Set("status", d.Status)
	return r.insert(ctx, b)
}

func (r *DeliverableRepository) GetByID(ctx context.Context, id int64) (*model.Deliverable, error) {
	return r.get(ctx, id)
}

func (r *DeliverableRepository) List(ctx context.Context, f model.DeliverableFilter) ([]model.Deliverable, error) {
	p := f.Page.Normalize()
	b := r.selectAll().
		WhereIf(f.Status != "", "status", "=", f.Status).
		WhereIf(f.UserID != nil, "user_id", "=", f.UserID).
		WhereIf(f.ProjectID != nil, "project_id", "=", f.ProjectID).
		WhereIf(f.TaskID != nil, "task_id", "=", f.TaskID)
	return r.find(ctx, page(b.OrderBy("created_at DESC", "id DESC"), p.Limit, p.Offset))
}

func (r *DeliverableRepository) Update(ctx context.Context, d *model.Deliverable) (*model.Deliverable, error) {
	b := Update(r.name).
		Set("task_id", d.TaskID).
		Set("project_id", d.ProjectID).
		Set("title", d.Title).
		Set("url", d.URL).
		Set("description", d.Description).
		Set("status", d.Status).
		Set("feedback", d.Feedback).
		Set("reviewed_by", d.ReviewedBy).
		Set("reviewed_at", d.ReviewedAt).
		SetRaw("updated_at", "NOW()")
	return r.update(ctx, d.ID, b)
}

func (r *DeliverableRepository) Delete(ctx context.Context, id int64) error {
	return r.remove(ctx, id)
}

// CountByStatus counts deliverables in one status, optionally for one user.
func (r *DeliverableRepository) CountByStatus(ctx context.Context, status string, userID *int64) (int, error) {
	return r.count(ctx, r.selectAll().
		Where("status", "=", status).
		WhereIf(userID != nil, "user_id", "=", userID))
}
