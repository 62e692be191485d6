package testutil

import (
	"context"
	"sync"

	"interntrack/internal/flash"
)

// Flash is an in-memory flash queue.
type Flash struct {
	mu     sync.Mutex
	queues map[int64][]flash.Message
}

func NewFlash() *Flash {
	return &Flash{queues: map[int64][]flash.Message{}}
}

func (f *Flash) Push(_ context.Context, userID int64, msg flash.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queues[userID] = append(f.queues[userID], msg)
	return nil
}

func (f *Flash) Pop(_ context.Context, userID int64) ([]flash.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msgs := f.queues[userID]
	delete(f.queues, userID)
	if msgs == nil {
		msgs = []flash.Message{}
	}
	return msgs, nil
}

// Peek returns the queued messages without draining them.
func (f *Flash) Peek(userID int64) []flash.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]flash.Message(nil), f.queues[userID]...)
}
