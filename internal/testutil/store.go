// Package testutil provides in-memory stand-ins for the Postgres and Redis
// backed stores so services and handlers can be tested without servers.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"interntrack/internal/model"
	"interntrack/internal/repository"
	"interntrack/pkg/outbox"
)

// rows is a tiny id-keyed table shared by the fakes.
type rows[T any] struct {
	mu   sync.Mutex
	data map[int64]T
	next int64
}

func (r *rows[T]) put(id int64, v T) {
	if r.data == nil {
		r.data = map[int64]T{}
	}
	r.data[id] = v
}

func (r *rows[T]) nextID() int64 {
	r.next++
	return r.next
}

func (r *rows[T]) sorted() []T {
	ids := make([]int64, 0, len(r.data))
	for id := range r.data {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.data[id])
	}
	return out
}

func (r *rows[T]) get(id int64) (*T, error) {
	v, ok := r.data[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &v, nil
}

func (r *rows[T]) remove(id int64) error {
	if _, ok := r.data[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.data, id)
	return nil
}

func eq[T comparable](p *T, v T) bool {
	return p == nil || *p == v
}

func eqPtr(p *int64, v *int64) bool {
	return p == nil || (v != nil && *v == *p)
}

// TxRunner runs fn directly; Calls counts transactions.
type TxRunner struct {
	Calls int
}

func (t *TxRunner) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.Calls++
	return fn(ctx)
}

// EventRecorder keeps recorded outbox messages in memory.
type EventRecorder struct {
	mu       sync.Mutex
	Messages []outbox.Message
	Err      error
}

func (e *EventRecorder) Record(_ context.Context, msg outbox.Message) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Err != nil {
		return e.Err
	}
	e.Messages = append(e.Messages, msg)
	return nil
}

// Keys returns the routing keys in recording order.
func (e *EventRecorder) Keys() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	keys := make([]string, len(e.Messages))
	for i, m := range e.Messages {
		keys[i] = m.RoutingKey
	}
	return keys
}

// FocusCache is a map-backed Smart Focus cache.
type FocusCache struct {
	mu          sync.Mutex
	data        map[int64]model.SmartFocus
	Invalidated []int64
}

func NewFocusCache() *FocusCache {
	return &FocusCache{data: map[int64]model.SmartFocus{}}
}

func (c *FocusCache) Get(_ context.Context, userID int64) (*model.SmartFocus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.data[userID]
	if !ok {
		return nil, nil
	}
	return &f, nil
}

func (c *FocusCache) Set(_ context.Context, focus *model.SmartFocus) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[focus.UserID] = *focus
	return nil
}

func (c *FocusCache) Invalidate(_ context.Context, userIDs ...int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range userIDs {
		delete(c.data, id)
		c.Invalidated = append(c.Invalidated, id)
	}
	return nil
}

func window[T any](items []T, p model.Page) []T {
	p = p.Normalize()
	if p.Offset >= len(items) {
		return []T{}
	}
	items = items[p.Offset:]
	if len(items) > p.Limit {
		items = items[:p.Limit]
	}
	return items
}

func inRange(t time.Time, from, to *time.Time) bool {
	if from != nil && t.Before(*from) {
		return false
	}
	if to != nil && !t.Before(*to) {
		return false
	}
	return true
}
