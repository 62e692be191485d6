package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interntrack/internal/model"
)

func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	require.NoError(t, rdb.FlushDB(context.Background()).Err())
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestFocusCache(t *testing.T) {
	rdb := testRedis(t)
	ctx := context.Background()
	c := NewFocusCache(rdb, time.Minute)

	got, err := c.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, got)

	focus := &model.SmartFocus{
		UserID:      1,
		Summary:     "Finish the report",
		Source:      model.FocusSourceHeuristic,
		Suggestions: []model.FocusSuggestion{{TaskID: 3, Title: "Report", Reason: "due today"}},
		GeneratedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, c.Set(ctx, focus))
	require.NoError(t, c.Set(ctx, &model.SmartFocus{UserID: 2}))

	got, err = c.Get(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, focus.Summary, got.Summary)
	assert.Equal(t, focus.Suggestions, got.Suggestions)

	require.NoError(t, c.Invalidate(ctx, 1))
	got, err = c.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, got)

	// other users keep their entry
	got, err = c.Get(ctx, 2)
	require.NoError(t, err)
	assert.NotNil(t, got)
	require.NoError(t, c.Invalidate(ctx))
}
