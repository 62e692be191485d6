package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"interntrack/internal/model"
)

var noteColumns = []string{
	"id", "user_id", "task_id", "project_id", "title", "body",
	"pinned", "created_at", "updated_at",
}

type NoteRepository struct {
	table[model.Note]
}

func NewNoteRepository(pool *pgxpool.Pool, logger *zap.Logger) *NoteRepository {
	return &NoteRepository{newTable[model.Note](pool, logger, "notes", noteColumns...)}
}

func (r *NoteRepository) Create(ctx context.Context, n *model.Note) (*model.Note, error) {
	b := InsertInto(r.name).
		Set("user_id", n.UserID).
		Set("task_id", n.TaskID).
		Set("project_id", n.ProjectID).
		Set("title", n.Title).
		Set("body", n.Body).
		Set("pinned", n.Pinned)
	return r.insert(ctx, b)
}

func (r *NoteRepository) GetByID(ctx context.Context, id int64) (*model.Note, error) {
	return r.get(ctx, id)
}

// List returns pinned notes first, then most recently edited.
func (r *NoteRepository) List(ctx context.Context, f model.NoteFilter) ([]model.Note, error) {
	p := f.Page.Normalize()
	b := r.selectAll().
		WhereIf(f.UserID != nil, "user_id", "=", f.UserID).
		WhereIf(f.TaskID != nil, "task_id", "=", f.TaskID).
		WhereIf(f.ProjectID != nil, "project_id", "=", f.ProjectID).
		WhereIf(f.Pinned != nil, "pinned", "=", f.Pinned)
	if f.Query != "" {
		b.WhereAny([]string{"title", "body"}, "ILIKE", likePattern(f.Query))
	}
	return r.find(ctx, page(b.OrderBy("pinned DESC", "updated_at DESC", "id DESC"), p.Limit, p.Offset))
}

func (r *NoteRepository) Update(ctx context.Context, n *model.Note) (*model.Note, error) {
	b := Update(r.name).
		Set("task_id", n.TaskID).
		Set("project_id", n.ProjectID).
		Set("title", n.Title).
		Set("body", n.Body).
		Set("pinned", n.Pinned).
		SetRaw("updated_at", "NOW()")
	return r.update(ctx, n.ID, b)
}

func (r *NoteRepository) Delete(ctx context.Context, id int64) error {
	return r.remove(ctx, id)
}
