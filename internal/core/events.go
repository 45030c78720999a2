package core

import (
	"context"
	"time"
)

// EventType is the kind of change a MapperEvent reports.
type EventType string

const (
	// EventMapperSaved is emitted after a mapper and its data elements are committed.
	EventMapperSaved EventType = "MAPPER_SAVED"

	// EventMapperDeleted is emitted after a mapper and its data elements are removed.
	EventMapperDeleted EventType = "MAPPER_DELETED"
)

// MapperEvent notifies consumers, such as the message codec, that a stored mapper changed.
type MapperEvent struct {
	// ID uniquely identifies the event.
	ID string `json:"id"`

	Type     EventType `json:"type"`
	MapperID string    `json:"mapper_id"`
	Name     string    `json:"name"`

	// Elements is the number of data elements written. Zero for deletions.
	Elements int `json:"elements"`

	Timestamp time.Time `json:"timestamp"`

	// RetryCount tracks how many times a relay has retried delivery.
	RetryCount int `json:"retry_count"`
}

// EventPublisher delivers mapper events to some downstream channel.
type EventPublisher interface {
	// Publish delivers a single event.
	Publish(ctx context.Context, event *MapperEvent) error

	// Close releases resources held by the publisher.
	Close() error
}

// EventQueue is a publisher that can also be drained, used as an outbox by the relay.
type EventQueue interface {
	EventPublisher

	// Dequeue retrieves up to batchSize events in FIFO order.
	// Returns an empty slice if no events are available.
	Dequeue(ctx context.Context, batchSize int) ([]*MapperEvent, error)

	// Size returns the current number of queued events.
	Size() int
}
