package service

import (
	"context"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"interntrack/internal/model"
	"interntrack/pkg/metrics"
	"interntrack/pkg/outbox"
	"interntrack/pkg/rbac"
)

type DeliverableInput struct {
	TaskID      *int64  `json:"task_id" form:"task_id"`
	ProjectID   *int64  `json:"project_id" form:"project_id"`
	Title       *string `json:"title" form:"title"`
	URL         *string `json:"url" form:"url"`
	Description *string `json:"description" form:"description"`
}

type ReviewInput struct {
	Status   string `json:"status" form:"status"`
	Feedback string `json:"feedback" form:"feedback"`
}

type DeliverableService struct {
	deliverables DeliverableStore
	tx           TxRunner
	events       EventRecorder
	logger       *zap.Logger
	now          func() time.Time
}

func NewDeliverableService(deliverables DeliverableStore, tx TxRunner, events EventRecorder, logger *zap.Logger) *DeliverableService {
	return &DeliverableService{deliverables: deliverables, tx: tx, events: events, logger: logger, now: time.Now}
}

// List returns deliverables; interns only see their own submissions.
func (s *DeliverableService) List(ctx context.Context, actor model.Actor, f model.DeliverableFilter) ([]model.Deliverable, error) {
	if !actor.Can(rbac.PermissionSubmitWork) {
		return nil, ErrForbidden
	}
	if !actor.Can(rbac.PermissionReviewWork) {
		f.UserID = &actor.UserID
	}
	list, err := s.deliverables.List(ctx, f)
	return list, storeErr(err)
}

func (s *DeliverableService) Get(ctx context.Context, actor model.Actor, id int64) (*model.Deliverable, error) {
	d, err := s.deliverables.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}
	if !actor.Owns(d.UserID) {
		return nil, ErrForbidden
	}
	return d, nil
}

func (s *DeliverableService) Submit(ctx context.Context, actor model.Actor, in DeliverableInput) (*model.Deliverable, error) {
	if !actor.Can(rbac.PermissionSubmitWork) {
		return nil, ErrForbidden
	}
	if in.Title == nil {
		return nil, invalid("title is required")
	}
	d := &model.Deliverable{UserID: actor.UserID, Status: model.DeliverableSubmitted}
	if err := applyDeliverable(d, in); err != nil {
		return nil, err
	}

	var created *model.Deliverable
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if created, err = s.deliverables.Create(ctx, d); err != nil {
			return err
		}
		return s.record(ctx, actor, EventDeliverableSubmitted, created)
	})
	if err != nil {
		return nil, storeErr(err)
	}
	metrics.IncrementEntityMutation("deliverable", "create")
	s.logger.Info("Deliverable submitted",
		zap.Int64("deliverable_id", created.ID),
		zap.Int64("user_id", actor.UserID),
	)
	return created, nil
}

// Update lets the owner edit a deliverable until it is approved. Editing
// after a change request puts it back to submitted.
func (s *DeliverableService) Update(ctx context.Context, actor model.Actor, id int64, in DeliverableInput) (*model.Deliverable, error) {
	d, err := s.deliverables.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}
	if d.UserID != actor.UserID {
		return nil, ErrForbidden
	}
	if d.Status == model.DeliverableApproved {
		return nil, invalid("approved deliverables cannot be edited")
	}
	if err := applyDeliverable(d, in); err != nil {
		return nil, err
	}
	d.Status = model.DeliverableSubmitted

	var updated *model.Deliverable
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if updated, err = s.deliverables.Update(ctx, d); err != nil {
			return err
		}
		return s.record(ctx, actor, EventDeliverableSubmitted, updated)
	})
	if err != nil {
		return nil, storeErr(err)
	}
	metrics.IncrementEntityMutation("deliverable", "update")
	s.logger.Info("Deliverable updated", zap.Int64("deliverable_id", id))
	return updated, nil
}

func (s *DeliverableService) Delete(ctx context.Context, actor model.Actor, id int64) error {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return err
	}
	if err := s.deliverables.Delete(ctx, id); err != nil {
		return storeErr(err)
	}
	metrics.IncrementEntityMutation("deliverable", "delete")
	s.logger.Info("Deliverable deleted", zap.Int64("deliverable_id", id))
	return nil
}

// Review records an admin decision and stamps the reviewer.
func (s *DeliverableService) Review(ctx context.Context, actor model.Actor, id int64, in ReviewInput) (*model.Deliverable, error) {
	if !actor.Can(rbac.PermissionReviewWork) {
		return nil, ErrForbidden
	}
	if !model.ValidReviewStatus(in.Status) {
		return nil, invalid("status must be %q or %q", model.DeliverableApproved, model.DeliverableChangesRequested)
	}
	feedback := strings.TrimSpace(in.Feedback)
	if in.Status == model.DeliverableChangesRequested && feedback == "" {
		return nil, invalid("feedback is required when requesting changes")
	}

	var reviewed *model.Deliverable
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		d, err := s.deliverables.GetByID(ctx, id)
		if err != nil {
			return err
		}
		d.Status = in.Status
		d.Feedback = feedback
		d.ReviewedBy = &actor.UserID
		d.ReviewedAt = ptr(s.now())
		if reviewed, err = s.deliverables.Update(ctx, d); err != nil {
			return err
		}
		return s.record(ctx, actor, EventDeliverableReviewed, reviewed)
	})
	if err != nil {
		return nil, storeErr(err)
	}
	metrics.IncrementEntityMutation("deliverable", "review")
	s.logger.Info("Deliverable reviewed",
		zap.Int64("deliverable_id", id),
		zap.String("status", in.Status),
		zap.Int64("reviewer_id", actor.UserID),
	)
	return reviewed, nil
}

func (s *DeliverableService) record(ctx context.Context, actor model.Actor, key string, d *model.Deliverable) error {
	return s.events.Record(ctx, outbox.Message{
		RoutingKey: key,
		ActorID:    actor.UserID,
		Entity:     "deliverable",
		EntityID:   d.ID,
		Data: map[string]any{
			"title":   d.Title,
			"status":  d.Status,
			"user_id": d.UserID,
		},
	})
}

func applyDeliverable(d *model.Deliverable, in DeliverableInput) error {
	if in.Title != nil {
		title, err := requireTitle("title", *in.Title)
		if err != nil {
			return err
		}
		d.Title = title
	}
	if in.URL != nil {
		link := strings.TrimSpace(*in.URL)
		if link != "" {
			u, err := url.Parse(link)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				return invalid("url must be an http(s) link")
			}
		}
		d.URL = link
	}
	if in.Description != nil {
		d.Description = strings.TrimSpace(*in.Description)
	}
	if in.TaskID != nil {
		d.TaskID = nonZero(in.TaskID)
	}
	if in.ProjectID != nil {
		d.ProjectID = nonZero(in.ProjectID)
	}
	return nil
}
