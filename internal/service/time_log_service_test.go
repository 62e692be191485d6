package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"interntrack/internal/model"
	"interntrack/internal/testutil"
)

func newTimeLogService(now time.Time) (*TimeLogService, *testutil.TimeLogStore, *testutil.EventRecorder) {
	store := &testutil.TimeLogStore{}
	events := &testutil.EventRecorder{}
	svc := NewTimeLogService(store, &testutil.TxRunner{}, events, zap.NewNop())
	svc.now = fixedClock(now)
	return svc, store, events
}

func TestTimer_StartStop(t *testing.T) {
	start := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
	svc, _, events := newTimeLogService(start)
	ctx := context.Background()

	running, err := svc.Running(ctx, intern)
	require.NoError(t, err)
	assert.Nil(t, running)

	task := int64(4)
	l, err := svc.StartTimer(ctx, intern, TimerInput{TaskID: &task, Description: " reading "})
	require.NoError(t, err)
	assert.True(t, l.Running())
	assert.Equal(t, "reading", l.Description)

	_, err = svc.StartTimer(ctx, intern, TimerInput{})
	assert.ErrorIs(t, err, ErrTimerRunning)

	// another user may run their own timer
	_, err = svc.StartTimer(ctx, other, TimerInput{})
	require.NoError(t, err)

	svc.now = fixedClock(start.Add(61*time.Minute + 5*time.Second))
	stopped, err := svc.StopTimer(ctx, intern)
	require.NoError(t, err)
	assert.False(t, stopped.Running())
	assert.Equal(t, 62, stopped.Minutes)
	assert.Equal(t, []string{EventTimeLogCreated}, events.Keys())

	_, err = svc.StopTimer(ctx, intern)
	assert.ErrorIs(t, err, ErrNoRunningTimer)
}

func TestRoundedMinutes(t *testing.T) {
	assert.Equal(t, 1, roundedMinutes(0))
	assert.Equal(t, 1, roundedMinutes(10*time.Second))
	assert.Equal(t, 1, roundedMinutes(time.Minute))
	assert.Equal(t, 2, roundedMinutes(time.Minute+time.Second))
	assert.Equal(t, 90, roundedMinutes(90*time.Minute))
}

func TestTimeLogCreate_Manual(t *testing.T) {
	now := time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)
	svc, _, _ := newTimeLogService(now)
	ctx := context.Background()

	mins := 45
	l, err := svc.Create(ctx, intern, TimeLogInput{Minutes: &mins})
	require.NoError(t, err)
	assert.Equal(t, 45, l.Minutes)
	assert.Equal(t, now.Add(-45*time.Minute), l.StartedAt)
	require.NotNil(t, l.EndedAt)
	assert.Equal(t, now, *l.EndedAt)

	from, to := "2024-06-01T09:00:00Z", "2024-06-01T10:30:00Z"
	l, err = svc.Create(ctx, intern, TimeLogInput{StartedAt: &from, EndedAt: &to})
	require.NoError(t, err)
	assert.Equal(t, 90, l.Minutes)

	tests := []struct {
		name string
		in   TimeLogInput
	}{
		{"nothing", TimeLogInput{}},
		{"zero minutes", TimeLogInput{Minutes: ptr(0)}},
		{"more than a day", TimeLogInput{Minutes: ptr(maxManualMinutes + 1)}},
		{"end before start", TimeLogInput{StartedAt: &to, EndedAt: &from}},
		{"start only", TimeLogInput{StartedAt: &from}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, intern, tt.in)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestTimeLog_OwnerScope(t *testing.T) {
	now := time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)
	svc, _, _ := newTimeLogService(now)
	ctx := context.Background()

	mins := 30
	l, err := svc.Create(ctx, intern, TimeLogInput{Minutes: &mins})
	require.NoError(t, err)

	_, err = svc.Get(ctx, other, l.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.Get(ctx, admin, l.ID)
	require.NoError(t, err)

	list, err := svc.List(ctx, other, model.TimeLogFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = svc.Summary(ctx, other, intern.UserID, nil, nil)
	assert.ErrorIs(t, err, ErrForbidden)

	sum, err := svc.Summary(ctx, intern, 0, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 30, sum.TotalMinutes)
	assert.Equal(t, intern.UserID, sum.UserID)
}

func TestTimeLogUpdate_RefusesRunning(t *testing.T) {
	now := time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)
	svc, _, _ := newTimeLogService(now)
	ctx := context.Background()

	l, err := svc.StartTimer(ctx, intern, TimerInput{})
	require.NoError(t, err)
	mins := 10
	_, err = svc.Update(ctx, intern, l.ID, TimeLogInput{Minutes: &mins})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestStopStale_CreditsMaxTimer(t *testing.T) {
	start := time.Date(2024, 6, 3, 8, 0, 0, 0, time.UTC)
	svc, _, events := newTimeLogService(start)
	ctx := context.Background()

	_, err := svc.StartTimer(ctx, intern, TimerInput{})
	require.NoError(t, err)

	svc.now = fixedClock(start.Add(3 * time.Hour))
	n, err := svc.StopStale(ctx, 4*time.Hour)
	require.NoError(t, err)
	assert.Zero(t, n)

	svc.now = fixedClock(start.Add(20 * time.Hour))
	n, err = svc.StopStale(ctx, 4*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	running, err := svc.Running(ctx, intern)
	require.NoError(t, err)
	assert.Nil(t, running)

	sum, err := svc.Summary(ctx, intern, 0, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 240, sum.TotalMinutes)
	require.Len(t, events.Messages, 1)
	assert.Zero(t, events.Messages[0].ActorID)
}
