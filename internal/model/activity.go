package model

import (
	"encoding/json"
	"time"
)

type Activity struct {
	ID         int64           `json:"id" db:"id"`
	EventID    string          `json:"event_id" db:"event_id"`
	RoutingKey string          `json:"routing_key" db:"routing_key"`
	ActorID    *int64          `json:"actor_id,omitempty" db:"actor_id"`
	Entity     string          `json:"entity" db:"entity"`
	EntityID   int64           `json:"entity_id" db:"entity_id"`
	Payload    json.RawMessage `json:"payload" db:"payload"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}

type ActivityFilter struct {
	Entity  string
	ActorID *int64
	Page
}
