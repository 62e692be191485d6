package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"interntrack/pkg/db"
	"interntrack/pkg/metrics"
	"interntrack/pkg/otel"
)

var (
	ErrNotFound         = errors.New("record not found")
	ErrDuplicate        = errors.New("duplicate record")
	ErrInvalidReference = errors.New("referenced record does not exist")
	ErrInvalidValue     = errors.New("value violates a constraint")
)

// mapError turns driver errors into the repository sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.ConstraintName)
		case pgerrcode.ForeignKeyViolation:
			return fmt.Errorf("%w: %s", ErrInvalidReference, pgErr.ConstraintName)
		case pgerrcode.CheckViolation, pgerrcode.NotNullViolation, pgerrcode.InvalidTextRepresentation:
			return fmt.Errorf("%w: %s", ErrInvalidValue, pgErr.Message)
		}
	}
	return err
}

// table is the shared base every entity repository embeds. Rows are scanned
// into T by db tag.
type table[T any] struct {
	pool    *pgxpool.Pool
	name    string
	columns []string
	logger  *zap.Logger
}

func newTable[T any](pool *pgxpool.Pool, logger *zap.Logger, name string, columns ...string) table[T] {
	return table[T]{pool: pool, name: name, columns: columns, logger: logger}
}

func (t table[T]) conn(ctx context.Context) db.DBTX {
	return db.Conn(ctx, t.pool)
}

func (t table[T]) selectAll() *SelectBuilder {
	return Select(t.name, t.columns...)
}

// writeOps are logged at Info on success; everything else is a read and stays at Debug.
var writeOps = map[string]bool{
	"insert":       true,
	"update":       true,
	"delete":       true,
	"clear_done":   true,
	"reorder":      true,
	"mark_overdue": true,
}

// observe logs the query, opens a span and returns a func that records
// duration and logs the outcome.
func (t table[T]) observe(ctx context.Context, op string, args []any) (context.Context, func(error) error) {
	t.logger.Debug("Executing query",
		zap.String("table", t.name),
		zap.String("op", op),
		zap.Int("args", len(args)),
	)
	ctx, span := otel.DBSpan(ctx, op, t.name)
	start := time.Now()
	return ctx, func(err error) error {
		took := time.Since(start)
		otel.EndDBSpan(span, err)
		metrics.RecordDBQueryDuration(op, t.name, took)
		mapped := mapError(err)
		switch {
		case mapped == nil && writeOps[op]:
			t.logger.Info("Query succeeded",
				zap.String("table", t.name),
				zap.String("op", op),
				zap.Duration("took", took),
			)
		case mapped == nil, errors.Is(mapped, ErrNotFound):
			t.logger.Debug("Query finished",
				zap.String("table", t.name),
				zap.String("op", op),
				zap.Duration("took", took),
				zap.Bool("not_found", mapped != nil),
			)
		default:
			t.logger.Error("db query failed",
				zap.String("table", t.name),
				zap.String("op", op),
				zap.Error(err),
			)
		}
		return mapped
	}
}

func (t table[T]) one(ctx context.Context, op, query string, args []any) (*T, error) {
	ctx, done := t.observe(ctx, op, args)
	rows, err := t.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, done(err)
	}
	item, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[T])
	if err != nil {
		return nil, done(err)
	}
	return &item, done(nil)
}

func (t table[T]) many(ctx context.Context, op, query string, args []any) ([]T, error) {
	ctx, done := t.observe(ctx, op, args)
	rows, err := t.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, done(err)
	}
	items, err := pgx.CollectRows(rows, pgx.RowToStructByName[T])
	if err != nil {
		return nil, done(err)
	}
	if items == nil {
		items = []T{}
	}
	return items, done(nil)
}

func (t table[T]) exec(ctx context.Context, op, query string, args []any) (int64, error) {
	ctx, done := t.observe(ctx, op, args)
	tag, err := t.conn(ctx).Exec(ctx, query, args...)
	if err != nil {
		return 0, done(err)
	}
	return tag.RowsAffected(), done(nil)
}

func (t table[T]) scalar(ctx context.Context, op, query string, args []any, dest ...any) error {
	ctx, done := t.observe(ctx, op, args)
	return done(t.conn(ctx).QueryRow(ctx, query, args...).Scan(dest...))
}

func (t table[T]) get(ctx context.Context, id int64) (*T, error) {
	query, args := t.selectAll().Where("id", "=", id).Build()
	return t.one(ctx, "get", query, args)
}

func (t table[T]) find(ctx context.Context, b *SelectBuilder) ([]T, error) {
	query, args := b.Build()
	return t.many(ctx, "list", query, args)
}

func (t table[T]) count(ctx context.Context, b *SelectBuilder) (int, error) {
	query, args := b.Count()
	var n int
	err := t.scalar(ctx, "count", query, args, &n)
	return n, err
}

func (t table[T]) insert(ctx context.Context, b *InsertBuilder) (*T, error) {
	query, args := b.Returning(t.columns...).Build()
	return t.one(ctx, "insert", query, args)
}

// update applies b to row id and returns the updated row.
func (t table[T]) update(ctx context.Context, id int64, b *UpdateBuilder) (*T, error) {
	if b.Empty() {
		return t.get(ctx, id)
	}
	query, args := b.Where("id", "=", id).Returning(t.columns...).Build()
	return t.one(ctx, "update", query, args)
}

func (t table[T]) remove(ctx context.Context, id int64) error {
	query, args := DeleteFrom(t.name).Where("id", "=", id).Build()
	n, err := t.exec(ctx, "delete", query, args)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func joinColumns(cols []string) string {
	return strings.Join(cols, ", ")
}

// page applies a normalized limit/offset window.
func page(b *SelectBuilder, limit, offset int) *SelectBuilder {
	return b.Limit(limit).Offset(offset)
}

// likePattern escapes LIKE wildcards in s and wraps it for a substring match.
func likePattern(s string) string {
	r := []rune{}
	for _, c := range s {
		if c == '%' || c == '_' || c == '\\' {
			r = append(r, '\\')
		}
		r = append(r, c)
	}
	return "%" + string(r) + "%"
}
