package flash

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_PushPop(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	t.Cleanup(func() { _ = rdb.Close() })
	ctx := context.Background()
	require.NoError(t, rdb.Del(ctx, key(7)).Err())

	s := NewStore(rdb, 0)
	require.NoError(t, s.Push(ctx, 7, Message{Type: TypeSuccess, Text: "Task created"}))
	require.NoError(t, s.Push(ctx, 7, Message{Type: TypeError, Text: "Oops"}))

	msgs, err := s.Pop(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, []Message{
		{Type: TypeSuccess, Text: "Task created"},
		{Type: TypeError, Text: "Oops"},
	}, msgs)

	msgs, err = s.Pop(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	for i := 0; i < maxQueued+5; i++ {
		require.NoError(t, s.Push(ctx, 7, Message{Type: TypeInfo, Text: fmt.Sprint(i)}))
	}
	msgs, err = s.Pop(ctx, 7)
	require.NoError(t, err)
	require.Len(t, msgs, maxQueued)
	assert.Equal(t, "5", msgs[0].Text)
}
