package events

import (
	"context"
	"sync"

	"github.com/rzpsarthak13/iso8583-persistence/internal/core"
)

const defaultMemoryBuffer = 10000

// MemoryQueue is a bounded, channel-backed core.EventQueue.
// Events are lost on process exit.
type MemoryQueue struct {
	queue  chan *core.MapperEvent
	mu     sync.RWMutex
	closed bool
}

// NewMemoryQueue creates a queue holding at most bufferSize events.
func NewMemoryQueue(bufferSize int) *MemoryQueue {
	if bufferSize <= 0 {
		bufferSize = defaultMemoryBuffer
	}
	return &MemoryQueue{
		queue: make(chan *core.MapperEvent, bufferSize),
	}
}

// Publish enqueues event without blocking.
func (q *MemoryQueue) Publish(ctx context.Context, event *core.MapperEvent) error {
	if err := checkEvent(event); err != nil {
		return err
	}

	// Hold the read lock across the send so Close cannot close the channel mid-send.
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.queue <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

// Dequeue returns up to batchSize events in FIFO order without waiting.
func (q *MemoryQueue) Dequeue(ctx context.Context, batchSize int) ([]*core.MapperEvent, error) {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	events := make([]*core.MapperEvent, 0, batchSize)
	for i := 0; i < batchSize; i++ {
		select {
		case event, ok := <-q.queue:
			if !ok {
				return events, nil
			}
			events = append(events, event)
		case <-ctx.Done():
			return events, ctx.Err()
		default:
			return events, nil
		}
	}
	return events, nil
}

// Size returns the number of buffered events.
func (q *MemoryQueue) Size() int {
	return len(q.queue)
}

// Close stops further publishing. Buffered events can still be drained.
func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	q.closed = true
	close(q.queue)
	return nil
}
