package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"interntrack/internal/model"
	"interntrack/pkg/metrics"
	"interntrack/pkg/outbox"
)

// Orchestrator runs periodic housekeeping: overdue marking and stale timers.
type Orchestrator struct {
	tasks    TaskStore
	timeLogs *TimeLogService
	tx       TxRunner
	events   EventRecorder
	focus    FocusCache
	interval time.Duration
	maxTimer time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

func NewOrchestrator(tasks TaskStore, timeLogs *TimeLogService, tx TxRunner, events EventRecorder, focus FocusCache, interval, maxTimer time.Duration, logger *zap.Logger) *Orchestrator {
	if interval <= 0 {
		interval = time.Minute
	}
	if maxTimer <= 0 {
		maxTimer = 12 * time.Hour
	}
	return &Orchestrator{
		tasks:    tasks,
		timeLogs: timeLogs,
		tx:       tx,
		events:   events,
		focus:    focus,
		interval: interval,
		maxTimer: maxTimer,
		logger:   logger,
		now:      time.Now,
	}
}

// Start blocks until ctx is cancelled.
func (o *Orchestrator) Start(ctx context.Context) {
	o.logger.Info("Starting orchestrator",
		zap.Duration("interval", o.interval),
		zap.Duration("max_timer", o.maxTimer),
	)
	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()

	o.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			o.logger.Info("Orchestrator stopped")
			return
		case <-ticker.C:
			o.RunOnce(ctx)
		}
	}
}

func (o *Orchestrator) RunOnce(ctx context.Context) {
	if _, err := o.MarkOverdue(ctx); err != nil {
		o.logger.Error("Failed to mark overdue tasks", zap.Error(err))
	}
	if n, err := o.timeLogs.StopStale(ctx, o.maxTimer); err != nil {
		o.logger.Error("Failed to stop stale timers", zap.Error(err))
	} else if n > 0 {
		o.logger.Info("Stopped stale timers", zap.Int("count", n))
	}
}

// MarkOverdue flags open tasks whose due date has passed and emits task.overdue for each.
func (o *Orchestrator) MarkOverdue(ctx context.Context) ([]model.Task, error) {
	now := o.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var marked []model.Task
	err := o.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if marked, err = o.tasks.MarkOverdue(ctx, today); err != nil {
			return err
		}
		for _, t := range marked {
			err := o.events.Record(ctx, outbox.Message{
				RoutingKey: EventTaskOverdue,
				Entity:     "task",
				EntityID:   t.ID,
				Data: map[string]any{
					"title":       t.Title,
					"assignee_id": t.AssigneeID,
					"due_date":    t.DueDate,
				},
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, storeErr(err)
	}
	if len(marked) == 0 {
		return marked, nil
	}

	metrics.AddTaskOverdue(len(marked))
	if o.focus != nil {
		ids := make([]int64, 0, len(marked))
		for _, t := range marked {
			if t.AssigneeID != nil {
				ids = append(ids, *t.AssigneeID)
			}
		}
		if err := o.focus.Invalidate(ctx, ids...); err != nil {
			o.logger.Warn("Failed to invalidate smart focus cache", zap.Error(err))
		}
	}
	o.logger.Info("Marked tasks overdue", zap.Int("count", len(marked)))
	return marked, nil
}
