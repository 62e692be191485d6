package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"interntrack/internal/model"
)

var activityColumns = []string{
	"id", "event_id", "routing_key", "actor_id", "entity", "entity_id", "payload", "created_at",
}

type ActivityRepository struct {
	table[model.Activity]
}

func NewActivityRepository(pool *pgxpool.Pool, logger *zap.Logger) *ActivityRepository {
	return &ActivityRepository{newTable[model.Activity](pool, logger, "activity_log", activityColumns...)}
}

// Insert stores the entry once per event id; a replayed event returns false.
func (r *ActivityRepository) Insert(ctx context.Context, a *model.Activity) (bool, error) {
	query := `
		INSERT INTO activity_log (event_id, routing_key, actor_id, entity, entity_id, payload)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (event_id) DO NOTHING
	`
	payload := a.Payload
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	n, err := r.exec(ctx, "insert", query, []any{a.EventID, a.RoutingKey, a.ActorID, a.Entity, a.EntityID, payload})
	return n > 0, err
}

func (r *ActivityRepository) List(ctx context.Context, f model.ActivityFilter) ([]model.Activity, error) {
	p := f.Page.Normalize()
	b := r.selectAll().
		WhereIf(f.Entity != "", "entity", "=", f.Entity).
		WhereIf(f.ActorID != nil, "actor_id", "=", f.ActorID)
	return r.find(ctx, page(b.OrderBy("created_at DESC", "id DESC"), p.Limit, p.Offset))
}
