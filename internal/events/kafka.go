package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/rzpsarthak13/iso8583-persistence/internal/core"
)

// MessageWriter is the part of *kafka.Writer used by KafkaPublisher.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConfig holds producer settings.
type KafkaConfig struct {
	Brokers      []string
	Topic        string
	BatchSize    int
	BatchTimeout time.Duration
	WriteTimeout time.Duration
	RequiredAcks int // 0, 1, or -1 (all)
}

// KafkaPublisher produces one message per event, keyed by mapper id so all
// changes to a mapper land on the same partition in order.
type KafkaPublisher struct {
	writer MessageWriter
	topic  string
	logger zerolog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewKafkaPublisher builds a synchronous kafka.Writer from cfg.
func NewKafkaPublisher(cfg KafkaConfig, logger zerolog.Logger) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("at least one Kafka broker is required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka topic is required")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
		MaxAttempts:  3,
		Async:        false,
	}

	p := NewKafkaPublisherWithWriter(writer, cfg.Topic, logger)
	p.logger.Info().Strs("brokers", cfg.Brokers).Int("required_acks", cfg.RequiredAcks).Msg("kafka publisher initialized")
	return p, nil
}

// NewKafkaPublisherWithWriter uses an existing writer.
func NewKafkaPublisherWithWriter(writer MessageWriter, topic string, logger zerolog.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: writer,
		topic:  topic,
		logger: logger.With().Str("component", "kafka").Str("topic", topic).Logger(),
	}
}

// Publish writes event and waits for the broker acknowledgement.
func (p *KafkaPublisher) Publish(ctx context.Context, event *core.MapperEvent) error {
	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()
	if closed {
		return ErrPublisherClosed
	}

	data, err := encodeEvent(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(event.MapperID),
		Value: data,
		Time:  event.Timestamp,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "mapper_name", Value: []byte(event.Name)},
		},
	}

	start := time.Now()
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error().Err(err).Str("event_id", event.ID).Dur("duration", time.Since(start)).Msg("failed to produce event")
		return fmt.Errorf("failed to write message to Kafka: %w", err)
	}
	p.logger.Debug().Str("event_id", event.ID).Str("type", string(event.Type)).Dur("duration", time.Since(start)).Msg("event produced")
	return nil
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.writer.Close()
}
