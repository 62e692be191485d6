package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"interntrack/internal/model"
)

var timeLogColumns = []string{
	"id", "user_id", "task_id", "started_at", "ended_at",
	"minutes", "description", "created_at",
}

type TimeLogRepository struct {
	table[model.TimeLog]
}

func NewTimeLogRepository(pool *pgxpool.Pool, logger *zap.Logger) *TimeLogRepository {
	return &TimeLogRepository{newTable[model.TimeLog](pool, logger, "time_logs", timeLogColumns...)}
}

func (r *TimeLogRepository) Create(ctx context.Context, l *model.TimeLog) (*model.TimeLog, error) {
	b := InsertInto(r.name).
		Set("user_id", l.UserID).
		Set("task_id", l.TaskID).
		Set("started_at", l.StartedAt).
		Set("ended_at", l.EndedAt).
		Set("minutes", l.Minutes).
		Set("description", l.Description)
	return r.insert(ctx, b)
}

func (r *TimeLogRepository) GetByID(ctx context.Context, id int64) (*model.TimeLog, error) {
	return r.get(ctx, id)
}

func (r *TimeLogRepository) List(ctx context.Context, f model.TimeLogFilter) ([]model.TimeLog, error) {
	p := f.Page.Normalize()
	b := r.selectAll().
		WhereIf(f.UserID != nil, "user_id", "=", f.UserID).
		WhereIf(f.TaskID != nil, "task_id", "=", f.TaskID).
		WhereIf(f.From != nil, "started_at", ">=", f.From).
		WhereIf(f.To != nil, "started_at", "<", f.To)
	return r.find(ctx, page(b.OrderBy("started_at DESC", "id DESC"), p.Limit, p.Offset))
}

func (r *TimeLogRepository) Update(ctx context.Context, l *model.TimeLog) (*model.TimeLog, error) {
	b := Update(r.name).
		Set("task_id", l.TaskID).
		Set("started_at", l.StartedAt).
		Set("ended_at", l.EndedAt).
		Set("minutes", l.Minutes).
		Set("description", l.Description)
	return r.update(ctx, l.ID, b)
}

func (r *TimeLogRepository) Delete(ctx context.Context, id int64) error {
	return r.remove(ctx, id)
}

// Running returns the user's active timer or ErrNotFound.
func (r *TimeLogRepository) Running(ctx context.Context, userID int64) (*model.TimeLog, error) {
	query, args := r.selectAll().
		Where("user_id", "=", userID).
		WhereNull("ended_at").
		Limit(1).
		Build()
	return r.one(ctx, "get_running", query, args)
}

// StaleRunning lists timers started before cutoff that are still running.
func (r *TimeLogRepository) StaleRunning(ctx context.Context, cutoff time.Time) ([]model.TimeLog, error) {
	query, args := r.selectAll().
		WhereNull("ended_at").
		Where("started_at", "<", cutoff).
		OrderBy("id").
		Build()
	return r.many(ctx, "list_stale", query, args)
}

// Summary totals finished minutes per task for a user in [from, to).
func (r *TimeLogRepository) Summary(ctx context.Context, userID int64, from, to *time.Time) ([]model.TaskMinutes, error) {
	query, args := Select("time_logs tl LEFT JOIN tasks t ON t.id = tl.task_id",
		"tl.task_id AS task_id",
		"COALESCE(t.title, '') AS title",
		"COALESCE(SUM(tl.minutes), 0)::int AS minutes").
		Where("tl.user_id", "=", userID).
		WhereNotNull("tl.ended_at").
		WhereIf(from != nil, "tl.started_at", ">=", from).
		WhereIf(to != nil, "tl.started_at", "<", to).
		GroupBy("tl.task_id", "t.title").
		OrderBy("minutes DESC", "tl.task_id").
		Build()

	ctx, done := r.observe(ctx, "summary", args)
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, done(err)
	}
	items, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.TaskMinutes])
	if err != nil {
		return nil, done(err)
	}
	if items == nil {
		items = []model.TaskMinutes{}
	}
	return items, done(nil)
}

// MinutesSince sums finished minutes since the given time, for one user or everyone.
func (r *TimeLogRepository) MinutesSince(ctx context.Context, userID *int64, since time.Time) (int, error) {
	query, args := Select(r.name, "COALESCE(SUM(minutes), 0)::int").
		WhereIf(userID != nil, "user_id", "=", userID).
		WhereNotNull("ended_at").
		Where("started_at", ">=", since).
		Build()
	var n int
	err := r.scalar(ctx, "sum_minutes", query, args, &n)
	return n, err
}
