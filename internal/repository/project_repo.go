package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"interntrack/internal/model"
)

var projectColumns = []string{
	"id", "name", "description", "status", "owner_id",
	"start_date", "due_date", "created_at", "updated_at",
}

type ProjectRepository struct {
	table[model.Project]
}

func NewProjectRepository(pool *pgxpool.Pool, logger *zap.Logger) *ProjectRepository {
	return &ProjectRepository{newTable[model.Project](pool, logger, "projects", projectColumns...)}
}

func (r *ProjectRepository) Create(ctx context.Context, p *model.Project) (*model.Project, error) {
	b := InsertInto(r.name).
		Set("name", p.Name).
		Set("description", p.Description).
		Set("status", p.Status).
		Set("owner_id", p.OwnerID).
		Set("start_date", p.StartDate).
		Set("due_date", p.DueDate)
	return r.insert(ctx, b)
}

func (r *ProjectRepository) GetByID(ctx context.Context, id int64) (*model.Project, error) {
	return r.get(ctx, id)
}

func (r *ProjectRepository) List(ctx context.Context, f model.ProjectFilter) ([]model.Project, error) {
	p := f.Page.Normalize()
	b := r.selectAll().
		WhereIf(f.Status != "", "status", "=", f.Status).
		WhereIf(f.OwnerID != nil, "owner_id", "=", f.OwnerID)
	if f.Query != "" {
		b.WhereAny([]string{"name", "description"}, "ILIKE", likePattern(f.Query))
	}
	return r.find(ctx, page(b.OrderBy("created_at DESC", "id DESC"), p.Limit, p.Offset))
}

func (r *ProjectRepository) Update(ctx context.Context, p *model.Project) (*model.Project, error) {
	b := Update(r.name).
		Set("name", p.Name).
		Set("description", p.Description).
		Set("status", p.Status).
		Set("owner_id", p.OwnerID).
		Set("start_date", p.StartDate).
		Set("due_date", p.DueDate).
		SetRaw("updated_at", "NOW()")
	return r.update(ctx, p.ID, b)
}

func (r *ProjectRepository) Delete(ctx context.Context, id int64) error {
	return r.remove(ctx, id)
}
