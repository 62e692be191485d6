package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"interntrack/internal/model"
	"interntrack/internal/repository"
	"interntrack/internal/testutil"
	"interntrack/pkg/outbox"
)

func TestActivityRecord_Idempotent(t *testing.T) {
	store := &testutil.ActivityStore{}
	svc := NewActivityService(store, zap.NewNop())
	ctx := context.Background()

	raw, err := outbox.BuildEnvelope(ctx, outbox.Message{
		RoutingKey: EventTaskCreated,
		ActorID:    admin.UserID,
		Entity:     "task",
		EntityID:   42,
		Data:       map[string]any{"title": "x"},
	}, time.Now())
	require.NoError(t, err)

	inserted, err := svc.Record(ctx, EventTaskCreated, raw)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = svc.Record(ctx, EventTaskCreated, raw)
	require.NoError(t, err)
	assert.False(t, inserted)

	list, err := svc.List(ctx, admin, model.ActivityFilter{Entity: "task"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.EqualValues(t, 42, list[0].EntityID)
	require.NotNil(t, list[0].ActorID)
	assert.Equal(t, admin.UserID, *list[0].ActorID)
	assert.JSONEq(t, `{"title":"x"}`, string(list[0].Payload))

	_, err = svc.List(ctx, intern, model.ActivityFilter{})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestActivityRecord_Malformed(t *testing.T) {
	svc := NewActivityService(&testutil.ActivityStore{}, zap.NewNop())
	ctx := context.Background()

	_, err := svc.Record(ctx, "task.created", json.RawMessage(`not json`))
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Record(ctx, "task.created", json.RawMessage(`{"entity":"task"}`))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestReports(t *testing.T) {
	reports := &testutil.ReportStore{Rows: []model.HoursRow{{GroupName: "Ada", Minutes: 90, Entries: 2}}}
	tasks := &testutil.TaskStore{}
	logs := &testutil.TimeLogStore{}
	svc := NewReportService(reports, tasks, logs, &testutil.DeliverableStore{}, &testutil.ListItemStore{}, zap.NewNop())
	now := time.Date(2024, 6, 12, 12, 0, 0, 0, time.UTC) // Wednesday
	svc.now = fixedClock(now)
	ctx := context.Background()

	_, err := svc.Hours(ctx, intern, "", nil, nil)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.Hours(ctx, admin, "team", nil, nil)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.Hours(ctx, admin, "", date(2024, 6, 2), date(2024, 6, 1))
	assert.ErrorIs(t, err, ErrValidation)

	rep, err := svc.Hours(ctx, admin, "", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, repository.GroupByUser, rep.GroupBy)
	assert.Equal(t, repository.GroupByUser, reports.LastDim)
	assert.Len(t, rep.Rows, 1)

	seedTasks(t, tasks,
		model.Task{Title: "a", AssigneeID: &intern.UserID},
		model.Task{Title: "b", AssigneeID: &other.UserID, Status: model.TaskStatusCompleted},
	)
	for _, l := range []model.TimeLog{
		{UserID: intern.UserID, StartedAt: now.Add(-time.Hour), EndedAt: &now, Minutes: 60},
		{UserID: intern.UserID, StartedAt: now.AddDate(0, 0, -7), EndedAt: &now, Minutes: 30},
		{UserID: other.UserID, StartedAt: now.Add(-2 * time.Hour), EndedAt: &now, Minutes: 15},
	} {
		_, err := logs.Create(ctx, &l)
		require.NoError(t, err)
	}

	mine, err := svc.Dashboard(ctx, intern)
	require.NoError(t, err)
	require.NotNil(t, mine.UserID)
	assert.Equal(t, 1, mine.TasksByStatus[model.TaskStatusPending])
	assert.Equal(t, 0, mine.TasksByStatus[model.TaskStatusCompleted])
	assert.Equal(t, 60, mine.MinutesThisWeek)

	all, err := svc.Dashboard(ctx, admin)
	require.NoError(t, err)
	assert.Nil(t, all.UserID)
	assert.Equal(t, 1, all.TasksByStatus[model.TaskStatusCompleted])
	assert.Equal(t, 75, all.MinutesThisWeek)
}
