package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"interntrack/internal/model"
	"interntrack/internal/testutil"
)

func TestListItems_AppendToggleClear(t *testing.T) {
	store := &testutil.ListItemStore{}
	svc := NewListItemService(store, &testutil.TxRunner{}, zap.NewNop())
	ctx := context.Background()

	var ids []int64
	for _, c := range []string{"one", "two", "three"} {
		item, err := svc.Create(ctx, intern, ListItemInput{Content: ptr(c)})
		require.NoError(t, err)
		ids = append(ids, item.ID)
		assert.Equal(t, len(ids), item.Position)
	}

	_, err := svc.Create(ctx, intern, ListItemInput{Content: ptr("   ")})
	assert.ErrorIs(t, err, ErrValidation)

	toggled, err := svc.Toggle(ctx, intern, ids[1])
	require.NoError(t, err)
	assert.True(t, toggled.Done)

	_, err = svc.Toggle(ctx, other, ids[1])
	assert.ErrorIs(t, err, ErrNotFound)

	n, err := svc.ClearDone(ctx, intern)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	list, err := svc.List(ctx, intern, model.ListItemFilter{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "one", list[0].Content)
	assert.Equal(t, "three", list[1].Content)
}

func TestListItems_Reorder(t *testing.T) {
	store := &testutil.ListItemStore{}
	tx := &testutil.TxRunner{}
	svc := NewListItemService(store, tx, zap.NewNop())
	ctx := context.Background()

	a, err := svc.Create(ctx, intern, ListItemInput{Content: ptr("a")})
	require.NoError(t, err)
	b, err := svc.Create(ctx, intern, ListItemInput{Content: ptr("b")})
	require.NoError(t, err)
	foreign, err := svc.Create(ctx, other, ListItemInput{Content: ptr("x")})
	require.NoError(t, err)

	require.NoError(t, svc.Reorder(ctx, intern, []int64{b.ID, a.ID}))
	list, err := svc.List(ctx, intern, model.ListItemFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, []string{list[0].Content, list[1].Content})
	assert.Equal(t, 1, tx.Calls)

	assert.ErrorIs(t, svc.Reorder(ctx, intern, []int64{a.ID, foreign.ID}), ErrForbidden)
	assert.ErrorIs(t, svc.Reorder(ctx, intern, []int64{a.ID, a.ID}), ErrValidation)
	assert.ErrorIs(t, svc.Reorder(ctx, intern, nil), ErrValidation)
}

func TestNotes_OwnerScoped(t *testing.T) {
	svc := NewNoteService(&testutil.NoteStore{}, zap.NewNop())
	ctx := context.Background()

	_, err := svc.Create(ctx, intern, NoteInput{Title: ptr(" "), Body: ptr("")})
	assert.ErrorIs(t, err, ErrValidation)

	n, err := svc.Create(ctx, intern, NoteInput{Body: ptr("remember the demo")})
	require.NoError(t, err)
	_, err = svc.Create(ctx, intern, NoteInput{Title: ptr("later")})
	require.NoError(t, err)

	_, err = svc.Get(ctx, other, n.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Get(ctx, admin, n.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	pinned, err := svc.TogglePin(ctx, intern, n.ID)
	require.NoError(t, err)
	assert.True(t, pinned.Pinned)

	list, err := svc.List(ctx, intern, model.NoteFilter{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, n.ID, list[0].ID)

	assert.ErrorIs(t, svc.Delete(ctx, other, n.ID), ErrNotFound)
	require.NoError(t, svc.Delete(ctx, intern, n.ID))
}

func TestDeliverables_SubmitReviewResubmit(t *testing.T) {
	events := &testutil.EventRecorder{}
	svc := NewDeliverableService(&testutil.DeliverableStore{}, &testutil.TxRunner{}, events, zap.NewNop())
	ctx := context.Background()

	_, err := svc.Submit(ctx, intern, DeliverableInput{Title: ptr("Report"), URL: ptr("ftp://files/report")})
	assert.ErrorIs(t, err, ErrValidation)

	d, err := svc.Submit(ctx, intern, DeliverableInput{Title: ptr("Report"), URL: ptr("https://docs.example.com/r")})
	require.NoError(t, err)
	assert.Equal(t, model.DeliverableSubmitted, d.Status)

	_, err = svc.Get(ctx, other, d.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	mine, err := svc.List(ctx, other, model.DeliverableFilter{})
	require.NoError(t, err)
	assert.Empty(t, mine)

	_, err = svc.Review(ctx, intern, d.ID, ReviewInput{Status: model.DeliverableApproved})
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.Review(ctx, admin, d.ID, ReviewInput{Status: model.DeliverableChangesRequested})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.Review(ctx, admin, d.ID, ReviewInput{Status: model.DeliverableSubmitted})
	assert.ErrorIs(t, err, ErrValidation)

	reviewed, err := svc.Review(ctx, admin, d.ID, ReviewInput{Status: model.DeliverableChangesRequested, Feedback: "add charts"})
	require.NoError(t, err)
	assert.Equal(t, "add charts", reviewed.Feedback)
	require.NotNil(t, reviewed.ReviewedBy)
	assert.Equal(t, admin.UserID, *reviewed.ReviewedBy)

	resubmitted, err := svc.Update(ctx, intern, d.ID, DeliverableInput{Description: ptr("now with charts")})
	require.NoError(t, err)
	assert.Equal(t, model.DeliverableSubmitted, resubmitted.Status)

	_, err = svc.Review(ctx, admin, d.ID, ReviewInput{Status: model.DeliverableApproved})
	require.NoError(t, err)
	_, err = svc.Update(ctx, intern, d.ID, DeliverableInput{Title: ptr("late edit")})
	assert.ErrorIs(t, err, ErrValidation)

	assert.Equal(t, []string{
		EventDeliverableSubmitted,
		EventDeliverableReviewed,
		EventDeliverableSubmitted,
		EventDeliverableReviewed,
	}, events.Keys())
}

func TestProjects_AdminOnlyWrites(t *testing.T) {
	events := &testutil.EventRecorder{}
	svc := NewProjectService(&testutil.ProjectStore{}, &testutil.TxRunner{}, events, zap.NewNop())
	ctx := context.Background()

	_, err := svc.Create(ctx, intern, ProjectInput{Name: ptr("Onboarding")})
	assert.ErrorIs(t, err, ErrForbidden)

	p, err := svc.Create(ctx, admin, ProjectInput{Name: ptr("Onboarding")})
	require.NoError(t, err)
	assert.Equal(t, model.ProjectStatusActive, p.Status)

	_, err = svc.Create(ctx, admin, ProjectInput{Name: ptr("Bad"), StartDate: ptr("2024-06-10"), DueDate: ptr("2024-06-01")})
	assert.ErrorIs(t, err, ErrValidation)

	got, err := svc.Get(ctx, intern, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Onboarding", got.Name)

	_, err = svc.List(ctx, intern, model.ProjectFilter{Status: "paused"})
	assert.ErrorIs(t, err, ErrValidation)

	assert.ErrorIs(t, svc.Delete(ctx, intern, p.ID), ErrForbidden)
	require.NoError(t, svc.Delete(ctx, admin, p.ID))
	assert.ErrorIs(t, svc.Delete(ctx, admin, p.ID), ErrNotFound)
	assert.Equal(t, []string{EventProjectCreated, EventProjectDeleted}, events.Keys())
}
