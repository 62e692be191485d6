package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"interntrack/pkg/trace"
)

// Envelope is the JSON body every domain event is published with.
type Envelope struct {
	EventID    string          `json:"event_id"`
	RoutingKey string          `json:"routing_key"`
	ActorID    *int64          `json:"actor_id,omitempty"`
	Entity     string          `json:"entity"`
	EntityID   int64           `json:"entity_id"`
	TraceID    string          `json:"trace_id,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data,omitempty"`
}

// Message describes a domain event before it is enveloped.
type Message struct {
	RoutingKey string
	ActorID    int64
	Entity     string
	EntityID   int64
	Data       any
}

// Writer appends domain events to the outbox table.
type Writer struct {
	repo *Repository
}

func NewWriter(repo *Repository) *Writer {
	return &Writer{repo: repo}
}

// Record 写入 outbox；调用方负责把它放在业务事务中
func (w *Writer) Record(ctx context.Context, msg Message) error {
	payload, err := BuildEnvelope(ctx, msg, time.Now())
	if err != nil {
		return err
	}

	entityID := msg.EntityID
	return w.repo.InsertEvent(ctx, &Event{
		AggregateType: msg.Entity,
		AggregateID:   &entityID,
		RoutingKey:    msg.RoutingKey,
		Payload:       payload,
		Status:        StatusPending,
	})
}

// BuildEnvelope wraps msg with a fresh event id and the trace id from ctx.
func BuildEnvelope(ctx context.Context, msg Message, now time.Time) (json.RawMessage, error) {
	env := Envelope{
		EventID:    uuid.NewString(),
		RoutingKey: msg.RoutingKey,
		Entity:     msg.Entity,
		EntityID:   msg.EntityID,
		TraceID:    trace.FromContext(ctx),
		OccurredAt: now.UTC(),
	}
	if msg.ActorID != 0 {
		actor := msg.ActorID
		env.ActorID = &actor
	}
	if msg.Data != nil {
		data, err := json.Marshal(msg.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal event data: %w", err)
		}
		env.Data = data
	}

	payload, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal envelope: %w", err)
	}
	return payload, nil
}
