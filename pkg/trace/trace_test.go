package trace

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateTraceID(t *testing.T) {
	a := GenerateTraceID()
	b := GenerateTraceID()

	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
	assert.Regexp(t, "^[0-9a-f]{32}$", a)
}

func TestContextRoundTrip(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, FromContext(ctx))

	ctx = WithContext(ctx, "trace-1")
	assert.Equal(t, "trace-1", FromContext(ctx))
}

func TestEnsure(t *testing.T) {
	ctx, id := Ensure(context.Background())
	assert.NotEmpty(t, id)
	assert.Equal(t, id, FromContext(ctx))

	same, again := Ensure(ctx)
	assert.Equal(t, id, again)
	assert.Equal(t, ctx, same)
}
