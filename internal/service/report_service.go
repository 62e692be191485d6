package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"interntrack/internal/model"
	"interntrack/internal/repository"
	"interntrack/pkg/rbac"
)

type ReportService struct {
	reports      ReportStore
	tasks        TaskStore
	logs         TimeLogStore
	deliverables DeliverableStore
	items        ListItemStore
	logger       *zap.Logger
	now          func() time.Time
}

func NewReportService(reports ReportStore, tasks TaskStore, logs TimeLogStore, deliverables DeliverableStore, items ListItemStore, logger *zap.Logger) *ReportService {
	return &ReportService{
		reports:      reports,
		tasks:        tasks,
		logs:         logs,
		deliverables: deliverables,
		items:        items,
		logger:       logger,
		now:          time.Now,
	}
}

// Hours totals logged minutes in [from, to) grouped by user or project.
func (s *ReportService) Hours(ctx context.Context, actor model.Actor, groupBy string, from, to *time.Time) (*model.HoursReport, error) {
	if !actor.Can(rbac.PermissionViewReports) {
		return nil, ErrForbidden
	}
	if groupBy == "" {
		groupBy = repository.GroupByUser
	}
	if groupBy != repository.GroupByUser && groupBy != repository.GroupByProject {
		return nil, invalid("group must be %q or %q", repository.GroupByUser, repository.GroupByProject)
	}
	if from != nil && to != nil && !to.After(*from) {
		return nil, invalid("to must be after from")
	}
	rows, err := s.reports.Hours(ctx, groupBy, from, to)
	if err != nil {
		return nil, storeErr(err)
	}
	return &model.HoursReport{GroupBy: groupBy, From: from, To: to, Rows: rows}, nil
}

// Dashboard summarises the actor's own work; admins get organisation totals.
func (s *ReportService) Dashboard(ctx context.Context, actor model.Actor) (*model.Dashboard, error) {
	var scope *int64
	if !actor.Can(rbac.PermissionViewReports) {
		scope = &actor.UserID
	}

	counts, err := s.tasks.CountByStatus(ctx, scope)
	if err != nil {
		return nil, storeErr(err)
	}
	minutes, err := s.logs.MinutesSince(ctx, scope, startOfWeek(s.now()))
	if err != nil {
		return nil, storeErr(err)
	}
	pending, err := s.deliverables.CountByStatus(ctx, model.DeliverableSubmitted, scope)
	if err != nil {
		return nil, storeErr(err)
	}
	openItems, err := s.items.CountOpen(ctx, &actor.UserID)
	if err != nil {
		return nil, storeErr(err)
	}

	return &model.Dashboard{
		UserID:              scope,
		TasksByStatus:       counts,
		MinutesThisWeek:     minutes,
		PendingDeliverables: pending,
		OpenListItems:       openItems,
	}, nil
}
