// Package flash keeps one-shot status messages for a user between requests.
package flash

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	TypeSuccess = "success"
	TypeError   = "error"
	TypeInfo    = "info"

	maxQueued = 20
)

type Message struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Store is a per-user FIFO of flash messages kept in a Redis list.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Store{rdb: rdb, ttl: ttl}
}

func key(userID int64) string {
	return fmt.Sprintf("flash:%d", userID)
}

// Push queues a message; only the newest maxQueued are kept.
func (s *Store) Push(ctx context.Context, userID int64, msg Message) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	k := key(userID)
	pipe := s.rdb.TxPipeline()
	pipe.RPush(ctx, k, b)
	pipe.LTrim(ctx, k, -maxQueued, -1)
	pipe.Expire(ctx, k, s.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

// Pop returns and clears all queued messages.
func (s *Store) Pop(ctx context.Context, userID int64) ([]Message, error) {
	k := key(userID)
	pipe := s.rdb.TxPipeline()
	rangeCmd := pipe.LRange(ctx, k, 0, -1)
	pipe.Del(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	raw := rangeCmd.Val()
	msgs := make([]Message, 0, len(raw))
	for _, r := range raw {
		var m Message
		if err := json.Unmarshal([]byte(r), &m); err != nil {
			continue
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}
