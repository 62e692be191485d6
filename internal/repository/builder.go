package repository

import (
	"fmt"
	"strconv"
	"strings"
)

// Fragments use '?' as the bind marker; Build renumbers them to $1..$n in
// the order the arguments were added.

var allowedOps = map[string]bool{
	"=":     true,
	"<>":    true,
	"<":     true,
	"<=":    true,
	">":     true,
	">=":    true,
	"LIKE":  true,
	"ILIKE": true,
	"IN":    true,
}

type where struct {
	parts []string
	args  []any
}

func (w *where) add(col, op string, v any) {
	op = strings.ToUpper(op)
	if !allowedOps[op] {
		panic(fmt.Sprintf("repository: operator %q not allowed", op))
	}
	if op == "IN" {
		w.parts = append(w.parts, col+" = ANY(?)")
	} else {
		w.parts = append(w.parts, col+" "+op+" ?")
	}
	w.args = append(w.args, v)
}

// anyOf ORs the same comparison across several columns.
func (w *where) anyOf(cols []string, op string, v any) {
	if len(cols) == 0 {
		return
	}
	sub := &where{}
	for _, c := range cols {
		sub.add(c, op, v)
	}
	w.parts = append(w.parts, "("+strings.Join(sub.parts, " OR ")+")")
	w.args = append(w.args, sub.args...)
}

func (w *where) raw(expr string, args ...any) {
	w.parts = append(w.parts, expr)
	w.args = append(w.args, args...)
}

func (w *where) sql() string {
	if len(w.parts) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.parts, " AND ")
}

// rebind replaces each '?' with a numbered placeholder.
func rebind(query string) string {
	var sb strings.Builder
	sb.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteByte(query[i])
	}
	return sb.String()
}

// SelectBuilder builds parameterized SELECT statements.
type SelectBuilder struct {
	table  string
	cols   []string
	w      where
	group  []string
	order  []string
	limit  int
	offset int
}

func Select(table string, cols ...string) *SelectBuilder {
	if len(cols) == 0 {
		cols = []string{"*"}
	}
	return &SelectBuilder{table: table, cols: cols}
}

func (b *SelectBuilder) Where(col, op string, v any) *SelectBuilder {
	b.w.add(col, op, v)
	return b
}

// WhereIf adds the condition only when ok is true.
func (b *SelectBuilder) WhereIf(ok bool, col, op string, v any) *SelectBuilder {
	if ok {
		b.w.add(col, op, v)
	}
	return b
}

func (b *SelectBuilder) WhereAny(cols []string, op string, v any) *SelectBuilder {
	b.w.anyOf(cols, op, v)
	return b
}

// WhereRaw appends a trusted SQL fragment; use '?' for its arguments.
func (b *SelectBuilder) WhereRaw(expr string, args ...any) *SelectBuilder {
	b.w.raw(expr, args...)
	return b
}

func (b *SelectBuilder) WhereNull(col string) *SelectBuilder {
	b.w.raw(col + " IS NULL")
	return b
}

func (b *SelectBuilder) WhereNotNull(col string) *SelectBuilder {
	b.w.raw(col + " IS NOT NULL")
	return b
}

func (b *SelectBuilder) GroupBy(exprs ...string) *SelectBuilder {
	b.group = append(b.group, exprs...)
	return b
}

func (b *SelectBuilder) OrderBy(exprs ...string) *SelectBuilder {
	b.order = append(b.order, exprs...)
	return b
}

func (b *SelectBuilder) Limit(n int) *SelectBuilder {
	b.limit = n
	return b
}

func (b *SelectBuilder) Offset(n int) *SelectBuilder {
	b.offset = n
	return b
}

func (b *SelectBuilder) Build() (string, []any) {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(b.cols, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(b.table)
	sb.WriteString(b.w.sql())

	args := append([]any{}, b.w.args...)
	if len(b.group) > 0 {
		sb.WriteString(" GROUP BY ")
		sb.WriteString(strings.Join(b.group, ", "))
	}
	if len(b.order) > 0 {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(b.order, ", "))
	}
	if b.limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, b.limit)
	}
	if b.offset > 0 {
		sb.WriteString(" OFFSET ?")
		args = append(args, b.offset)
	}
	return rebind(sb.String()), args
}

// Count builds a COUNT(*) over the same conditions, ignoring order and paging.
func (b *SelectBuilder) Count() (string, []any) {
	query := "SELECT COUNT(*) FROM " + b.table + b.w.sql()
	return rebind(query), append([]any{}, b.w.args...)
}

type assignment struct {
	col  string
	expr string
	arg  any
	raw  bool
}

// InsertBuilder builds INSERT ... RETURNING statements.
type InsertBuilder struct {
	table     string
	sets      []assignment
	returning []string
}

func InsertInto(table string) *InsertBuilder {
	return &InsertBuilder{table: table}
}

func (b *InsertBuilder) Set(col string, v any) *InsertBuilder {
	b.sets = append(b.sets, assignment{col: col, arg: v})
	return b
}

func (b *InsertBuilder) Returning(cols ...string) *InsertBuilder {
	b.returning = cols
	return b
}

func (b *InsertBuilder) Build() (string, []any) {
	cols := make([]string, len(b.sets))
	marks := make([]string, len(b.sets))
	args := make([]any, len(b.sets))
	for i, s := range b.sets {
		cols[i] = s.col
		marks[i] = "?"
		args[i] = s.arg
	}

	query := "INSERT INTO " + b.table + " (" + strings.Join(cols, ", ") + ") VALUES (" + strings.Join(marks, ", ") + ")"
	if len(b.returning) > 0 {
		query += " RETURNING " + strings.Join(b.returning, ", ")
	}
	return rebind(query), args
}

// UpdateBuilder builds UPDATE statements.
type UpdateBuilder struct {
	table     string
	sets      []assignment
	w         where
	returning []string
}

func Update(table string) *UpdateBuilder {
	return &UpdateBuilder{table: table}
}

func (b *UpdateBuilder) Set(col string, v any) *UpdateBuilder {
	b.sets = append(b.sets, assignment{col: col, arg: v})
	return b
}

// SetRaw assigns a trusted SQL expression such as NOW().
func (b *UpdateBuilder) SetRaw(col, expr string) *UpdateBuilder {
	b.sets = append(b.sets, assignment{col: col, expr: expr, raw: true})
	return b
}

func (b *UpdateBuilder) Where(col, op string, v any) *UpdateBuilder {
	b.w.add(col, op, v)
	return b
}

func (b *UpdateBuilder) WhereRaw(expr string, args ...any) *UpdateBuilder {
	b.w.raw(expr, args...)
	return b
}

func (b *UpdateBuilder) Returning(cols ...string) *UpdateBuilder {
	b.returning = cols
	return b
}

// Empty reports whether no column has been assigned.
func (b *UpdateBuilder) Empty() bool {
	return len(b.sets) == 0
}

func (b *UpdateBuilder) Build() (string, []any) {
	parts := make([]string, 0, len(b.sets))
	args := make([]any, 0, len(b.sets)+len(b.w.args))
	for _, s := range b.sets {
		if s.raw {
			parts = append(parts, s.col+" = "+s.expr)
			continue
		}
		parts = append(parts, s.col+" = ?")
		args = append(args, s.arg)
	}
	args = append(args, b.w.args...)

	query := "UPDATE " + b.table + " SET " + strings.Join(parts, ", ") + b.w.sql()
	if len(b.returning) > 0 {
		query += " RETURNING " + strings.Join(b.returning, ", ")
	}
	return rebind(query), args
}

// DeleteBuilder builds DELETE statements.
type DeleteBuilder struct {
	table string
	w     where
}

func DeleteFrom(table string) *DeleteBuilder {
	return &DeleteBuilder{table: table}
}

func (b *DeleteBuilder) Where(col, op string, v any) *DeleteBuilder {
	b.w.add(col, op, v)
	return b
}

func (b *DeleteBuilder) Build() (string, []any) {
	return rebind("DELETE FROM " + b.table + b.w.sql()), append([]any{}, b.w.args...)
}
