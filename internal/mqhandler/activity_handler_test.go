package mqhandler

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"interntrack/internal/model"
	"interntrack/internal/service"
	"interntrack/internal/testutil"
	"interntrack/pkg/util"
)

type memDeduper struct {
	seen     map[string]bool
	released []string
}

func newMemDeduper() *memDeduper {
	return &memDeduper{seen: map[string]bool{}}
}

func (d *memDeduper) AcquireOnce(_ context.Context, handler, key string) bool {
	k := util.FormatDedupKey(handler, key)
	if d.seen[k] {
		return false
	}
	d.seen[k] = true
	return true
}

func (d *memDeduper) Release(_ context.Context, handler, key string) {
	delete(d.seen, util.FormatDedupKey(handler, key))
	d.released = append(d.released, key)
}

type failingRecorder struct{ err error }

func (f failingRecorder) Record(context.Context, string, json.RawMessage) (bool, error) {
	return false, f.err
}

const envelope = `{"event_id":"evt-1","routing_key":"task.created","actor_id":1,"entity":"task","entity_id":7,"occurred_at":"2024-06-03T09:00:00Z","data":{"title":"Write onboarding doc"}}`

func TestActivityHandler_RecordsOnce(t *testing.T) {
	store := &testutil.ActivityStore{}
	dedup := newMemDeduper()
	h := NewActivityHandler(service.NewActivityService(store, zap.NewNop()), dedup, zap.NewNop())

	require.NoError(t, h.Handle(context.Background(), "task.created", json.RawMessage(envelope)))
	require.NoError(t, h.Handle(context.Background(), "task.created", json.RawMessage(envelope)))

	list, err := store.List(context.Background(), model.ActivityFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "evt-1", list[0].EventID)
	assert.Equal(t, "task", list[0].Entity)
	assert.EqualValues(t, 7, list[0].EntityID)
}

func TestActivityHandler_StoreDedupWithoutRedis(t *testing.T) {
	store := &testutil.ActivityStore{}
	h := NewActivityHandler(service.NewActivityService(store, zap.NewNop()), nil, zap.NewNop())

	require.NoError(t, h.Handle(context.Background(), "task.created", json.RawMessage(envelope)))
	require.NoError(t, h.Handle(context.Background(), "task.created", json.RawMessage(envelope)))

	list, err := store.List(context.Background(), model.ActivityFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestActivityHandler_MalformedIsNotRetryable(t *testing.T) {
	h := NewActivityHandler(service.NewActivityService(&testutil.ActivityStore{}, zap.NewNop()), newMemDeduper(), zap.NewNop())

	err := h.Handle(context.Background(), "task.created", json.RawMessage(`{not json`))
	require.Error(t, err)
	retryable, kind := util.IsRetryableError(err)
	assert.False(t, retryable)
	assert.Equal(t, "json_decode_error", kind)

	err = h.Handle(context.Background(), "task.created", json.RawMessage(`{"event_id":"evt-2"}`))
	require.ErrorIs(t, err, service.ErrValidation)
	retryable, _ = util.IsRetryableError(err)
	assert.False(t, retryable)
}

func TestActivityHandler_ReleasesOnFailure(t *testing.T) {
	dedup := newMemDeduper()
	h := NewActivityHandler(failingRecorder{err: errors.New("connection refused")}, dedup, zap.NewNop())

	err := h.Handle(context.Background(), "task.created", json.RawMessage(envelope))
	require.Error(t, err)
	assert.Equal(t, []string{"evt-1"}, dedup.released)

	retryable, _ := util.IsRetryableError(err)
	assert.True(t, retryable)
}
