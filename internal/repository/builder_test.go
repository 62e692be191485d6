package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestSelectBuilder(t *testing.T) {
	tests := []struct {
		name     string
		build    func() *SelectBuilder
		wantSQL  string
		wantArgs []any
	}{
		{
			name:     "no conditions",
			build:    func() *SelectBuilder { return Select("tasks", "id", "title") },
			wantSQL:  "SELECT id, title FROM tasks",
			wantArgs: []any{},
		},
		{
			name: "conditions order and paging",
			build: func() *SelectBuilder {
				return Select("tasks", "id").
					Where("status", "=", "pending").
					Where("assignee_id", "=", int64(3)).
					OrderBy("due_date ASC NULLS LAST", "id").
					Limit(20).
					Offset(40)
			},
			wantSQL:  "SELECT id FROM tasks WHERE status = $1 AND assignee_id = $2 ORDER BY due_date ASC NULLS LAST, id LIMIT $3 OFFSET $4",
			wantArgs: []any{"pending", int64(3), 20, 40},
		},
		{
			name: "skipped conditions",
			build: func() *SelectBuilder {
				return Select("notes", "id").
					WhereIf(false, "pinned", "=", true).
					WhereIf(true, "user_id", "=", int64(1))
			},
			wantSQL:  "SELECT id FROM notes WHERE user_id = $1",
			wantArgs: []any{int64(1)},
		},
		{
			name: "in becomes any",
			build: func() *SelectBuilder {
				return Select("tasks", "id").Where("status", "in", []string{"pending", "overdue"})
			},
			wantSQL:  "SELECT id FROM tasks WHERE status = ANY($1)",
			wantArgs: []any{[]string{"pending", "overdue"}},
		},
		{
			name: "or group and null checks",
			build: func() *SelectBuilder {
				return Select("tasks", "id").
					Where("project_id", "=", int64(9)).
					WhereAny([]string{"title", "description"}, "ILIKE", "%doc%").
					WhereNull("completed_at")
			},
			wantSQL:  "SELECT id FROM tasks WHERE project_id = $1 AND (title ILIKE $2 OR description ILIKE $3) AND completed_at IS NULL",
			wantArgs: []any{int64(9), "%doc%", "%doc%"},
		},
		{
			name: "group by",
			build: func() *SelectBuilder {
				return Select("tasks", "status", "COUNT(*)").WhereNotNull("assignee_id").GroupBy("status")
			},
			wantSQL:  "SELECT status, COUNT(*) FROM tasks WHERE assignee_id IS NOT NULL GROUP BY status",
			wantArgs: []any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args := tt.build().Build()
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestSelectBuilder_Count(t *testing.T) {
	sql, args := Select("list_items", "id", "content").
		Where("user_id", "=", int64(2)).
		OrderBy("position").
		Limit(10).
		Count()

	assert.Equal(t, "SELECT COUNT(*) FROM list_items WHERE user_id = $1", sql)
	assert.Equal(t, []any{int64(2)}, args)
}

func TestSelectBuilder_RejectsUnknownOperator(t *testing.T) {
	assert.Panics(t, func() {
		Select("users").Where("name", "; DROP TABLE users; --", "x")
	})
}

func TestInsertBuilder(t *testing.T) {
	sql, args := InsertInto("notes").
		Set("user_id", int64(1)).
		Set("title", "Standup").
		Returning("id", "created_at").
		Build()

	assert.Equal(t, "INSERT INTO notes (user_id, title) VALUES ($1, $2) RETURNING id, created_at", sql)
	assert.Equal(t, []any{int64(1), "Standup"}, args)
}

func TestUpdateBuilder(t *testing.T) {
	b := Update("tasks").
		Set("title", "New").
		SetRaw("updated_at", "NOW()").
		Set("status", "completed").
		Where("id", "=", int64(5)).
		Returning("id")

	sql, args := b.Build()
	assert.Equal(t, "UPDATE tasks SET title = $1, updated_at = NOW(), status = $2 WHERE id = $3 RETURNING id", sql)
	assert.Equal(t, []any{"New", "completed", int64(5)}, args)
	assert.False(t, b.Empty())
	assert.True(t, Update("tasks").Empty())
}

func TestDeleteBuilder(t *testing.T) {
	sql, args := DeleteFrom("list_items").
		Where("user_id", "=", int64(4)).
		Where("done", "=", true).
		Build()

	assert.Equal(t, "DELETE FROM list_items WHERE user_id = $1 AND done = $2", sql)
	assert.Equal(t, []any{int64(4), true}, args)
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, "%report%", likePattern("report"))
	assert.Equal(t, `%100\%\_done%`, likePattern("100%_done"))
}

func TestMapError(t *testing.T) {
	assert.NoError(t, mapError(nil))
	assert.ErrorIs(t, mapError(pgx.ErrNoRows), ErrNotFound)
	assert.ErrorIs(t, mapError(fmt.Errorf("wrap: %w", pgx.ErrNoRows)), ErrNotFound)
	assert.ErrorIs(t, mapError(&pgconn.PgError{Code: pgerrcode.UniqueViolation}), ErrDuplicate)
	assert.ErrorIs(t, mapError(&pgconn.PgError{Code: pgerrcode.ForeignKeyViolation}), ErrInvalidReference)
	assert.ErrorIs(t, mapError(&pgconn.PgError{Code: pgerrcode.CheckViolation}), ErrInvalidValue)

	other := errors.New("boom")
	assert.Equal(t, other, mapError(other))
}
