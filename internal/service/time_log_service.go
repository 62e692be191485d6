package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"interntrack/internal/model"
	"interntrack/internal/repository"
	"interntrack/pkg/metrics"
	"interntrack/pkg/outbox"
	"interntrack/pkg/rbac"
)

const maxManualMinutes = 24 * 60

// TimeLogInput is a manual entry: either minutes, or started_at and ended_at.
type TimeLogInput struct {
	TaskID      *int64  `json:"task_id" form:"task_id"`
	StartedAt   *string `json:"started_at" form:"started_at"`
	EndedAt     *string `json:"ended_at" form:"ended_at"`
	Minutes     *int    `json:"minutes" form:"minutes"`
	Description *string `json:"description" form:"description"`
}

type TimerInput struct {
	TaskID      *int64 `json:"task_id" form:"task_id"`
	Description string `json:"description" form:"description"`
}

type TimeLogService struct {
	logs   TimeLogStore
	tx     TxRunner
	events EventRecorder
	logger *zap.Logger
	now    func() time.Time
}

func NewTimeLogService(logs TimeLogStore, tx TxRunner, events EventRecorder, logger *zap.Logger) *TimeLogService {
	return &TimeLogService{logs: logs, tx: tx, events: events, logger: logger, now: time.Now}
}

// List returns logs; interns are limited to their own.
func (s *TimeLogService) List(ctx context.Context, actor model.Actor, f model.TimeLogFilter) ([]model.TimeLog, error) {
	if !actor.Can(rbac.PermissionLogTime) {
		return nil, ErrForbidden
	}
	if !actor.IsAdmin() {
		f.UserID = &actor.UserID
	}
	list, err := s.logs.List(ctx, f)
	return list, storeErr(err)
}

func (s *TimeLogService) Get(ctx context.Context, actor model.Actor, id int64) (*model.TimeLog, error) {
	l, err := s.logs.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}
	if !actor.Owns(l.UserID) {
		return nil, ErrForbidden
	}
	return l, nil
}

// Create records a finished manual entry for the actor.
func (s *TimeLogService) Create(ctx context.Context, actor model.Actor, in TimeLogInput) (*model.TimeLog, error) {
	if !actor.Can(rbac.PermissionLogTime) {
		return nil, ErrForbidden
	}
	l := &model.TimeLog{UserID: actor.UserID}
	if err := s.apply(l, in); err != nil {
		return nil, err
	}
	if l.EndedAt == nil {
		return nil, invalid("minutes or started_at/ended_at are required")
	}
	return s.create(ctx, actor, l)
}

func (s *TimeLogService) Update(ctx context.Context, actor model.Actor, id int64, in TimeLogInput) (*model.TimeLog, error) {
	l, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if l.Running() {
		return nil, invalid("stop the timer before editing it")
	}
	if err := s.apply(l, in); err != nil {
		return nil, err
	}
	updated, err := s.logs.Update(ctx, l)
	if err != nil {
		return nil, storeErr(err)
	}
	metrics.IncrementEntityMutation("time_log", "update")
	s.logger.Info("Time log updated", zap.Int64("time_log_id", id))
	return updated, nil
}

func (s *TimeLogService) Delete(ctx context.Context, actor model.Actor, id int64) error {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return err
	}
	if err := s.logs.Delete(ctx, id); err != nil {
		return storeErr(err)
	}
	metrics.IncrementEntityMutation("time_log", "delete")
	s.logger.Info("Time log deleted", zap.Int64("time_log_id", id))
	return nil
}

// StartTimer opens a running log. Only one timer may run per user.
func (s *TimeLogService) StartTimer(ctx context.Context, actor model.Actor, in TimerInput) (*model.TimeLog, error) {
	if !actor.Can(rbac.PermissionLogTime) {
		return nil, ErrForbidden
	}
	if _, err := s.logs.Running(ctx, actor.UserID); err == nil {
		return nil, ErrTimerRunning
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	l, err := s.logs.Create(ctx, &model.TimeLog{
		UserID:      actor.UserID,
		TaskID:      nonZero(in.TaskID),
		StartedAt:   s.now(),
		Description: strings.TrimSpace(in.Description),
	})
	if err != nil {
		// the partial unique index catches a concurrent start
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrTimerRunning
		}
		return nil, storeErr(err)
	}
	s.logger.Info("Timer started",
		zap.Int64("user_id", actor.UserID),
		zap.Int64("time_log_id", l.ID),
	)
	return l, nil
}

// StopTimer closes the running log; minutes are rounded up with a minimum of one.
func (s *TimeLogService) StopTimer(ctx context.Context, actor model.Actor) (*model.TimeLog, error) {
	if !actor.Can(rbac.PermissionLogTime) {
		return nil, ErrForbidden
	}
	var stopped *model.TimeLog
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		l, err := s.logs.Running(ctx, actor.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrNoRunningTimer
			}
			return err
		}
		stopped, err = s.stop(ctx, actor.UserID, l, s.now())
		return err
	})
	if err != nil {
		return nil, storeErr(err)
	}
	return stopped, nil
}

// Running returns the actor's active timer or nil.
func (s *TimeLogService) Running(ctx context.Context, actor model.Actor) (*model.TimeLog, error) {
	l, err := s.logs.Running(ctx, actor.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return l, storeErr(err)
}

// Summary totals finished minutes per task. Admins may ask about any user.
func (s *TimeLogService) Summary(ctx context.Context, actor model.Actor, userID int64, from, to *time.Time) (*model.TimeSummary, error) {
	if userID == 0 {
		userID = actor.UserID
	}
	if !actor.Owns(userID) {
		return nil, ErrForbidden
	}
	rows, err := s.logs.Summary(ctx, userID, from, to)
	if err != nil {
		return nil, storeErr(err)
	}
	sum := &model.TimeSummary{UserID: userID, ByTask: rows, From: from, To: to}
	for _, r := range rows {
		sum.TotalMinutes += r.Minutes
	}
	return sum, nil
}

// StopStale closes timers running longer than maxTimer, crediting exactly maxTimer.
func (s *TimeLogService) StopStale(ctx context.Context, maxTimer time.Duration) (int, error) {
	now := s.now()
	stale, err := s.logs.StaleRunning(ctx, now.Add(-maxTimer))
	if err != nil {
		return 0, storeErr(err)
	}
	stopped := 0
	for i := range stale {
		l := &stale[i]
		// system stop: no actor on the event
		if _, err := s.stop(ctx, 0, l, l.StartedAt.Add(maxTimer)); err != nil {
			s.logger.Error("Failed to stop stale timer",
				zap.Int64("time_log_id", l.ID),
				zap.Error(err),
			)
			continue
		}
		stopped++
	}
	return stopped, nil
}

func (s *TimeLogService) stop(ctx context.Context, actorID int64, l *model.TimeLog, end time.Time) (*model.TimeLog, error) {
	l.EndedAt = &end
	l.Minutes = roundedMinutes(end.Sub(l.StartedAt))
	var updated *model.TimeLog
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if updated, err = s.logs.Update(ctx, l); err != nil {
			return err
		}
		return s.record(ctx, actorID, updated)
	})
	if err != nil {
		return nil, err
	}
	metrics.IncrementEntityMutation("time_log", "create")
	s.logger.Info("Timer stopped",
		zap.Int64("time_log_id", updated.ID),
		zap.Int("minutes", updated.Minutes),
	)
	return updated, nil
}

func (s *TimeLogService) create(ctx context.Context, actor model.Actor, l *model.TimeLog) (*model.TimeLog, error) {
	var created *model.TimeLog
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if created, err = s.logs.Create(ctx, l); err != nil {
			return err
		}
		return s.record(ctx, actor.UserID, created)
	})
	if err != nil {
		return nil, storeErr(err)
	}
	metrics.IncrementEntityMutation("time_log", "create")
	s.logger.Info("Time logged",
		zap.Int64("time_log_id", created.ID),
		zap.Int("minutes", created.Minutes),
	)
	return created, nil
}

func (s *TimeLogService) record(ctx context.Context, actorID int64, l *model.TimeLog) error {
	return s.events.Record(ctx, outbox.Message{
		RoutingKey: EventTimeLogCreated,
		ActorID:    actorID,
		Entity:     "time_log",
		EntityID:   l.ID,
		Data: map[string]any{
			"user_id": l.UserID,
			"task_id": l.TaskID,
			"minutes": l.Minutes,
		},
	})
}

// apply validates a manual entry. Explicit start/end win over minutes.
func (s *TimeLogService) apply(l *model.TimeLog, in TimeLogInput) error {
	if in.TaskID != nil {
		l.TaskID = nonZero(in.TaskID)
	}
	if in.Description != nil {
		l.Description = strings.TrimSpace(*in.Description)
	}

	var start, end *time.Time
	var err error
	if in.StartedAt != nil {
		if start, err = ParseDate(*in.StartedAt); err != nil {
			return err
		}
	}
	if in.EndedAt != nil {
		if end, err = ParseDate(*in.EndedAt); err != nil {
			return err
		}
	}

	switch {
	case start != nil && end != nil:
		if !end.After(*start) {
			return invalid("ended_at must be after started_at")
		}
		l.StartedAt, l.EndedAt = *start, end
		l.Minutes = roundedMinutes(end.Sub(*start))
	case in.Minutes != nil:
		if *in.Minutes <= 0 || *in.Minutes > maxManualMinutes {
			return invalid("minutes must be between 1 and %d", maxManualMinutes)
		}
		if start == nil {
			if l.StartedAt.IsZero() {
				l.StartedAt = s.now().Add(-time.Duration(*in.Minutes) * time.Minute)
			}
		} else {
			l.StartedAt = *start
		}
		e := l.StartedAt.Add(time.Duration(*in.Minutes) * time.Minute)
		l.EndedAt = &e
		l.Minutes = *in.Minutes
	case start != nil || end != nil:
		return invalid("started_at and ended_at must be given together")
	}
	return nil
}

func roundedMinutes(d time.Duration) int {
	if d <= 0 {
		return 1
	}
	m := int((d + time.Minute - 1) / time.Minute)
	if m < 1 {
		m = 1
	}
	return m
}
