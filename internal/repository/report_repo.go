package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"interntrack/internal/model"
)

const (
	GroupByUser    = "user"
	GroupByProject = "project"
)

// ReportRepository runs read-only aggregate queries over time logs.
type ReportRepository struct {
	table[model.HoursRow]
}

func NewReportRepository(pool *pgxpool.Pool, logger *zap.Logger) *ReportRepository {
	return &ReportRepository{newTable[model.HoursRow](pool, logger, "time_logs")}
}

// Hours totals finished minutes in [from, to) grouped by user or project.
func (r *ReportRepository) Hours(ctx context.Context, groupBy string, from, to *time.Time) ([]model.HoursRow, error) {
	var b *SelectBuilder
	if groupBy == GroupByProject {
		b = Select("time_logs tl LEFT JOIN tasks t ON t.id = tl.task_id LEFT JOIN projects p ON p.id = t.project_id",
			"p.id AS group_id",
			"COALESCE(p.name, 'Unassigned') AS group_name",
			"COALESCE(SUM(tl.minutes), 0)::int AS minutes",
			"COUNT(*)::int AS entries").
			GroupBy("p.id", "p.name")
	} else {
		b = Select("time_logs tl JOIN users u ON u.id = tl.user_id",
			"u.id AS group_id",
			"u.name AS group_name",
			"COALESCE(SUM(tl.minutes), 0)::int AS minutes",
			"COUNT(*)::int AS entries").
			GroupBy("u.id", "u.name")
	}
	query, args := b.
		WhereNotNull("tl.ended_at").
		WhereIf(from != nil, "tl.started_at", ">=", from).
		WhereIf(to != nil, "tl.started_at", "<", to).
		OrderBy("minutes DESC", "group_name").
		Build()

	ctx, done := r.observe(ctx, "hours_report", args)
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, done(err)
	}
	items, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.HoursRow])
	if err != nil {
		return nil, done(err)
	}
	if items == nil {
		items = []model.HoursRow{}
	}
	return items, done(nil)
}
