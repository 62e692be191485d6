package service

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"interntrack/internal/model"
	"interntrack/pkg/outbox"
	"interntrack/pkg/rbac"
)

type ActivityService struct {
	activity ActivityStore
	logger   *zap.Logger
}

func NewActivityService(activity ActivityStore, logger *zap.Logger) *ActivityService {
	return &ActivityService{activity: activity, logger: logger}
}

func (s *ActivityService) List(ctx context.Context, actor model.Actor, f model.ActivityFilter) ([]model.Activity, error) {
	if !actor.Can(rbac.PermissionViewActivity) {
		return nil, ErrForbidden
	}
	list, err := s.activity.List(ctx, f)
	return list, storeErr(err)
}

// Record stores one published event envelope. It reports false when the
// event id was already recorded.
func (s *ActivityService) Record(ctx context.Context, routingKey string, raw json.RawMessage) (bool, error) {
	var env outbox.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return false, fmt.Errorf("%w: malformed event: %v", ErrValidation, err)
	}
	if env.EventID == "" || env.Entity == "" {
		return false, invalid("event is missing event_id or entity")
	}
	if env.RoutingKey == "" {
		env.RoutingKey = routingKey
	}
	payload := env.Data
	if len(payload) == 0 {
		payload = json.RawMessage(`{}`)
	}

	inserted, err := s.activity.Insert(ctx, &model.Activity{
		EventID:    env.EventID,
		RoutingKey: env.RoutingKey,
		ActorID:    env.ActorID,
		Entity:     env.Entity,
		EntityID:   env.EntityID,
		Payload:    payload,
	})
	if err != nil {
		return false, storeErr(err)
	}
	return inserted, nil
}
