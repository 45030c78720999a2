// Package events delivers mapper change events to downstream consumers.
//
// Publishers are created through a factory registry keyed by backend type.
// Backends that can also be drained implement core.EventQueue and can feed a
// Relay, which forwards queued events to another publisher at a bounded rate.
package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rzpsarthak13/iso8583-persistence/internal/core"
)

var (
	// ErrQueueClosed is returned when publishing to or draining a closed queue.
	ErrQueueClosed = errors.New("event queue is closed")

	// ErrQueueFull is returned when a bounded in-memory queue has no room left.
	ErrQueueFull = errors.New("event queue is full")

	// ErrInvalidEvent is returned when an event is nil or has no type.
	ErrInvalidEvent = errors.New("invalid mapper event")

	// ErrPublisherClosed is returned when publishing to a closed publisher.
	ErrPublisherClosed = errors.New("event publisher is closed")
)

const defaultBatchSize = 100

func checkEvent(event *core.MapperEvent) error {
	if event == nil {
		return ErrInvalidEvent
	}
	if event.Type == "" {
		return fmt.Errorf("%w: event type is required", ErrInvalidEvent)
	}
	return nil
}

// encodeEvent stamps a missing timestamp and serializes the event.
func encodeEvent(event *core.MapperEvent) ([]byte, error) {
	if err := checkEvent(event); err != nil {
		return nil, err
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal mapper event: %w", err)
	}
	return data, nil
}

func decodeEvent(data []byte) (*core.MapperEvent, error) {
	var event core.MapperEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal mapper event: %w", err)
	}
	return &event, nil
}
