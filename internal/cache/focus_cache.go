package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"interntrack/internal/model"
)

const keyFocus = "focus:"

// FocusCache caches Smart Focus results per user in Redis.
type FocusCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewFocusCache returns a new FocusCache.
func NewFocusCache(rdb *redis.Client, ttl time.Duration) *FocusCache {
	return &FocusCache{rdb: rdb, ttl: ttl}
}

func focusKey(userID int64) string {
	return keyFocus + strconv.FormatInt(userID, 10)
}

// Get returns the cached result or nil on a miss.
func (c *FocusCache) Get(ctx context.Context, userID int64) (*model.SmartFocus, error) {
	b, err := c.rdb.Get(ctx, focusKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var focus model.SmartFocus
	if err := json.Unmarshal(b, &focus); err != nil {
		return nil, err
	}
	return &focus, nil
}

// Set stores the result for the configured TTL.
func (c *FocusCache) Set(ctx context.Context, focus *model.SmartFocus) error {
	b, err := json.Marshal(focus)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, focusKey(focus.UserID), b, c.ttl).Err()
}

// Invalidate drops cached results for the given users.
func (c *FocusCache) Invalidate(ctx context.Context, userIDs ...int64) error {
	if len(userIDs) == 0 {
		return nil
	}
	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = focusKey(id)
	}
	return c.rdb.Del(ctx, keys...).Err()
}
