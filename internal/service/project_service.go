package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"interntrack/internal/model"
	"interntrack/pkg/metrics"
	"interntrack/pkg/outbox"
	"interntrack/pkg/rbac"
)

type ProjectInput struct {
	Name        *string `json:"name" form:"name"`
	Description *string `json:"description" form:"description"`
	Status      *string `json:"status" form:"status"`
	OwnerID     *int64  `json:"owner_id" form:"owner_id"`
	StartDate   *string `json:"start_date" form:"start_date"`
	DueDate     *string `json:"due_date" form:"due_date"`
}

type ProjectService struct {
	projects ProjectStore
	tx       TxRunner
	events   EventRecorder
	logger   *zap.Logger
}

func NewProjectService(projects ProjectStore, tx TxRunner, events EventRecorder, logger *zap.Logger) *ProjectService {
	return &ProjectService{projects: projects, tx: tx, events: events, logger: logger}
}

func (s *ProjectService) List(ctx context.Context, actor model.Actor, f model.ProjectFilter) ([]model.Project, error) {
	if !actor.Can(rbac.PermissionReadProject) {
		return nil, ErrForbidden
	}
	if f.Status != "" && !model.ValidProjectStatus(f.Status) {
		return nil, invalid("unknown status %q", f.Status)
	}
	list, err := s.projects.List(ctx, f)
	return list, storeErr(err)
}

func (s *ProjectService) Get(ctx context.Context, actor model.Actor, id int64) (*model.Project, error) {
	if !actor.Can(rbac.PermissionReadProject) {
		return nil, ErrForbidden
	}
	p, err := s.projects.GetByID(ctx, id)
	return p, storeErr(err)
}

func (s *ProjectService) Create(ctx context.Context, actor model.Actor, in ProjectInput) (*model.Project, error) {
	if !actor.Can(rbac.PermissionManageProjects) {
		return nil, ErrForbidden
	}
	if in.Name == nil {
		return nil, invalid("name is required")
	}
	p := &model.Project{Status: model.ProjectStatusActive, OwnerID: &actor.UserID}
	if err := applyProject(p, in); err != nil {
		return nil, err
	}

	var created *model.Project
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if created, err = s.projects.Create(ctx, p); err != nil {
			return err
		}
		return s.events.Record(ctx, outbox.Message{
			RoutingKey: EventProjectCreated,
			ActorID:    actor.UserID,
			Entity:     "project",
			EntityID:   created.ID,
			Data:       map[string]any{"name": created.Name},
		})
	})
	if err != nil {
		return nil, storeErr(err)
	}

	metrics.IncrementEntityMutation("project", "create")
	s.logger.Info("Project created",
		zap.Int64("project_id", created.ID),
		zap.Int64("actor_id", actor.UserID),
	)
	return created, nil
}

func (s *ProjectService) Update(ctx context.Context, actor model.Actor, id int64, in ProjectInput) (*model.Project, error) {
	if !actor.Can(rbac.PermissionManageProjects) {
		return nil, ErrForbidden
	}
	p, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}
	if err := applyProject(p, in); err != nil {
		return nil, err
	}
	updated, err := s.projects.Update(ctx, p)
	if err != nil {
		return nil, storeErr(err)
	}
	metrics.IncrementEntityMutation("project", "update")
	s.logger.Info("Project updated", zap.Int64("project_id", id))
	return updated, nil
}

func (s *ProjectService) Delete(ctx context.Context, actor model.Actor, id int64) error {
	if !actor.Can(rbac.PermissionManageProjects) {
		return ErrForbidden
	}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.projects.Delete(ctx, id); err != nil {
			return err
		}
		return s.events.Record(ctx, outbox.Message{
			RoutingKey: EventProjectDeleted,
			ActorID:    actor.UserID,
			Entity:     "project",
			EntityID:   id,
		})
	})
	if err != nil {
		return storeErr(err)
	}
	metrics.IncrementEntityMutation("project", "delete")
	s.logger.Info("Project deleted", zap.Int64("project_id", id))
	return nil
}

func applyProject(p *model.Project, in ProjectInput) error {
	if in.Name != nil {
		name, err := requireTitle("name", *in.Name)
		if err != nil {
			return err
		}
		p.Name = name
	}
	if in.Description != nil {
		p.Description = strings.TrimSpace(*in.Description)
	}
	if in.Status != nil {
		if !model.ValidProjectStatus(*in.Status) {
			return invalid("unknown status %q", *in.Status)
		}
		p.Status = *in.Status
	}
	if in.OwnerID != nil {
		p.OwnerID = in.OwnerID
	}
	if in.StartDate != nil {
		d, err := ParseDate(*in.StartDate)
		if err != nil {
			return err
		}
		p.StartDate = d
	}
	if in.DueDate != nil {
		d, err := ParseDate(*in.DueDate)
		if err != nil {
			return err
		}
		p.DueDate = d
	}
	if p.StartDate != nil && p.DueDate != nil && p.DueDate.Before(*p.StartDate) {
		return invalid("due_date must not be before start_date")
	}
	return nil
}
