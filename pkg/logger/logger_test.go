package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"interntrack/pkg/trace"
)

func TestNewLogger_Level(t *testing.T) {
	l := NewLogger("debug")
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))
	assert.Same(t, l, Log)

	l = NewLogger("not-a-level")
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
}

func TestWithTrace(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	WithTrace(context.Background(), base).Info("no trace")
	WithTrace(trace.WithContext(context.Background(), "abc"), base).Info("traced")

	entries := logs.All()
	assert.Len(t, entries, 2)
	assert.Empty(t, entries[0].ContextMap())
	assert.Equal(t, "abc", entries[1].ContextMap()["trace_id"])
}
