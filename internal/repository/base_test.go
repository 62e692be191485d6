package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"interntrack/internal/model"
)

func observedTable(t *testing.T) (table[model.Task], *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	return newTable[model.Task](nil, zap.New(core), "tasks", "id"), logs
}

func TestObserve_LogsBeforeAndAfter(t *testing.T) {
	tests := []struct {
		name      string
		op        string
		err       error
		wantLevel zapcore.Level
		wantMsg   string
	}{
		{"write success", "insert", nil, zapcore.InfoLevel, "Query succeeded"},
		{"read success", "list", nil, zapcore.DebugLevel, "Query finished"},
		{"not found", "get", pgx.ErrNoRows, zapcore.DebugLevel, "Query finished"},
		{"failure", "update", errors.New("connection reset"), zapcore.ErrorLevel, "db query failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl, logs := observedTable(t)

			_, done := tbl.observe(context.Background(), tt.op, []any{1, "x"})
			_ = done(tt.err)

			entries := logs.All()
			require.Len(t, entries, 2)
			assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
			assert.Equal(t, "Executing query", entries[0].Message)
			assert.Equal(t, "tasks", entries[0].ContextMap()["table"])
			assert.EqualValues(t, 2, entries[0].ContextMap()["args"])

			assert.Equal(t, tt.wantLevel, entries[1].Level)
			assert.Equal(t, tt.wantMsg, entries[1].Message)
			assert.Equal(t, tt.op, entries[1].ContextMap()["op"])
		})
	}
}

func TestObserve_MapsErrors(t *testing.T) {
	tbl, _ := observedTable(t)
	_, done := tbl.observe(context.Background(), "get", nil)
	assert.ErrorIs(t, done(pgx.ErrNoRows), ErrNotFound)
}
