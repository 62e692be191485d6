package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"interntrack/internal/model"
	"interntrack/pkg/metrics"
	"interntrack/pkg/rbac"
)

type NoteInput struct {
	TaskID    *int64  `json:"task_id" form:"task_id"`
	ProjectID *int64  `json:"project_id" form:"project_id"`
	Title     *string `json:"title" form:"title"`
	Body      *string `json:"body" form:"body"`
	Pinned    *bool   `json:"pinned" form:"pinned"`
}

// NoteService manages private notes; every note belongs to exactly one user.
type NoteService struct {
	notes  NoteStore
	logger *zap.Logger
}

func NewNoteService(notes NoteStore, logger *zap.Logger) *NoteService {
	return &NoteService{notes: notes, logger: logger}
}

func (s *NoteService) List(ctx context.Context, actor model.Actor, f model.NoteFilter) ([]model.Note, error) {
	if !actor.Can(rbac.PermissionWriteNotes) {
		return nil, ErrForbidden
	}
	f.UserID = &actor.UserID
	list, err := s.notes.List(ctx, f)
	return list, storeErr(err)
}

func (s *NoteService) Get(ctx context.Context, actor model.Actor, id int64) (*model.Note, error) {
	n, err := s.notes.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}
	if n.UserID != actor.UserID {
		return nil, ErrNotFound
	}
	return n, nil
}

func (s *NoteService) Create(ctx context.Context, actor model.Actor, in NoteInput) (*model.Note, error) {
	if !actor.Can(rbac.PermissionWriteNotes) {
		return nil, ErrForbidden
	}
	n := &model.Note{UserID: actor.UserID}
	applyNote(n, in)
	if n.Title == "" && n.Body == "" {
		return nil, invalid("a note needs a title or a body")
	}
	if len([]rune(n.Title)) > maxTitleLen {
		return nil, invalid("title must be at most %d characters", maxTitleLen)
	}

	created, err := s.notes.Create(ctx, n)
	if err != nil {
		return nil, storeErr(err)
	}
	metrics.IncrementEntityMutation("note", "create")
	s.logger.Info("Note created", zap.Int64("note_id", created.ID), zap.Int64("user_id", actor.UserID))
	return created, nil
}

func (s *NoteService) Update(ctx context.Context, actor model.Actor, id int64, in NoteInput) (*model.Note, error) {
	n, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	applyNote(n, in)
	if n.Title == "" && n.Body == "" {
		return nil, invalid("a note needs a title or a body")
	}
	updated, err := s.notes.Update(ctx, n)
	if err != nil {
		return nil, storeErr(err)
	}
	metrics.IncrementEntityMutation("note", "update")
	return updated, nil
}

// TogglePin flips the pinned flag.
func (s *NoteService) TogglePin(ctx context.Context, actor model.Actor, id int64) (*model.Note, error) {
	n, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	n.Pinned = !n.Pinned
	updated, err := s.notes.Update(ctx, n)
	if err != nil {
		return nil, storeErr(err)
	}
	metrics.IncrementEntityMutation("note", "update")
	return updated, nil
}

func (s *NoteService) Delete(ctx context.Context, actor model.Actor, id int64) error {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return err
	}
	if err := s.notes.Delete(ctx, id); err != nil {
		return storeErr(err)
	}
	metrics.IncrementEntityMutation("note", "delete")
	s.logger.Info("Note deleted", zap.Int64("note_id", id))
	return nil
}

func applyNote(n *model.Note, in NoteInput) {
	if in.Title != nil {
		n.Title = strings.TrimSpace(*in.Title)
	}
	if in.Body != nil {
		n.Body = strings.TrimSpace(*in.Body)
	}
	if in.Pinned != nil {
		n.Pinned = *in.Pinned
	}
	if in.TaskID != nil {
		n.TaskID = nonZero(in.TaskID)
	}
	if in.ProjectID != nil {
		n.ProjectID = nonZero(in.ProjectID)
	}
}
