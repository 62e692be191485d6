package mqhandler

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"interntrack/pkg/logger"
)

const activityHandlerName = "activity"

// Deduper is satisfied by *util.Deduper.
type Deduper interface {
	AcquireOnce(ctx context.Context, handler string, key string) bool
	Release(ctx context.Context, handler string, key string)
}

// ActivityRecorder is satisfied by *service.ActivityService.
type ActivityRecorder interface {
	Record(ctx context.Context, routingKey string, raw json.RawMessage) (bool, error)
}

type ActivityHandler struct {
	recorder ActivityRecorder
	deduper  Deduper
	logger   *zap.Logger
}

func NewActivityHandler(recorder ActivityRecorder, deduper Deduper, logger *zap.Logger) *ActivityHandler {
	return &ActivityHandler{
		recorder: recorder,
		deduper:  deduper,
		logger:   logger,
	}
}

// Handle writes one tracker event into the activity feed.
// 幂等：Redis 去重在前，activity_log.event_id 唯一约束兜底
func (h *ActivityHandler) Handle(ctx context.Context, routingKey string, raw json.RawMessage) error {
	log := logger.WithTrace(ctx, h.logger).With(zap.String("routing_key", routingKey))

	var head struct {
		EventID string `json:"event_id"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		log.Error("Failed to unmarshal event envelope", zap.Error(err))
		return err
	}

	if head.EventID != "" && h.deduper != nil {
		if !h.deduper.AcquireOnce(ctx, activityHandlerName, head.EventID) {
			return nil
		}
	}

	inserted, err := h.recorder.Record(ctx, routingKey, raw)
	if err != nil {
		if head.EventID != "" && h.deduper != nil {
			h.deduper.Release(ctx, activityHandlerName, head.EventID)
		}
		log.Error("Failed to record activity",
			zap.String("event_id", head.EventID),
			zap.Error(err),
		)
		return err
	}

	if !inserted {
		log.Debug("Activity already recorded, skipping", zap.String("event_id", head.EventID))
		return nil
	}
	log.Info("Activity recorded", zap.String("event_id", head.EventID))
	return nil
}
