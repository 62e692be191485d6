package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"interntrack/internal/model"
)

var listItemColumns = []string{
	"id", "user_id", "task_id", "content", "done", "position", "created_at", "updated_at",
}

type ListItemRepository struct {
	table[model.ListItem]
}

func NewListItemRepository(pool *pgxpool.Pool, logger *zap.Logger) *ListItemRepository {
	return &ListItemRepository{newTable[model.ListItem](pool, logger, "list_items", listItemColumns...)}
}

// Create appends the item after the user's last position.
func (r *ListItemRepository) Create(ctx context.Context, item *model.ListItem) (*model.ListItem, error) {
	query := `
		INSERT INTO list_items (user_id, task_id, content, done, position)
		VALUES ($1, $2, $3, $4,
		        (SELECT COALESCE(MAX(position), 0) + 1 FROM list_items WHERE user_id = $1))
		RETURNING ` + joinColumns(r.columns)
	return r.one(ctx, "insert", query, []any{item.UserID, item.TaskID, item.Content, item.Done})
}

func (r *ListItemRepository) GetByID(ctx context.Context, id int64) (*model.ListItem, error) {
	return r.get(ctx, id)
}

func (r *ListItemRepository) List(ctx context.Context, f model.ListItemFilter) ([]model.ListItem, error) {
	p := f.Page.Normalize()
	b := r.selectAll().
		WhereIf(f.UserID != nil, "user_id", "=", f.UserID).
		WhereIf(f.TaskID != nil, "task_id", "=", f.TaskID).
		WhereIf(f.Done != nil, "done", "=", f.Done)
	return r.find(ctx, page(b.OrderBy("position", "id"), p.Limit, p.Offset))
}

func (r *ListItemRepository) Update(ctx context.Context, item *model.ListItem) (*model.ListItem, error) {
	b := Update(r.name).
		Set("task_id", item.TaskID).
		Set("content", item.Content).
		Set("done", item.Done).
		Set("position", item.Position).
		SetRaw("updated_at", "NOW()")
	return r.update(ctx, item.ID, b)
}

func (r *ListItemRepository) Delete(ctx context.Context, id int64) error {
	return r.remove(ctx, id)
}

// SetPosition moves one of the user's items; it reports whether a row matched.
func (r *ListItemRepository) SetPosition(ctx context.Context, userID, id int64, position int) (bool, error) {
	query, args := Update(r.name).
		Set("position", position).
		SetRaw("updated_at", "NOW()").
		Where("id", "=", id).
		Where("user_id", "=", userID).
		Build()
	n, err := r.exec(ctx, "reorder", query, args)
	return n > 0, err
}

// ClearDone deletes the user's completed items and returns how many went.
func (r *ListItemRepository) ClearDone(ctx context.Context, userID int64) (int64, error) {
	query, args := DeleteFrom(r.name).
		Where("user_id", "=", userID).
		Where("done", "=", true).
		Build()
	return r.exec(ctx, "clear_done", query, args)
}

// CountOpen counts unfinished items, optionally for one user.
func (r *ListItemRepository) CountOpen(ctx context.Context, userID *int64) (int, error) {
	return r.count(ctx, r.selectAll().
		Where("done", "=", false).
		WhereIf(userID != nil, "user_id", "=", userID))
}
