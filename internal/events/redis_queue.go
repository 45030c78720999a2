package events

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/rzpsarthak13/iso8583-persistence/internal/core"
)

// ListOperations is the subset of Redis list commands the queue needs.
type ListOperations interface {
	// ListPush appends a value to the tail of a list (RPUSH).
	ListPush(ctx context.Context, key string, value []byte) error

	// ListPop removes and returns the head of a list (LPOP).
	// Returns nil, nil if the list is empty.
	ListPop(ctx context.Context, key string) ([]byte, error)

	// ListLength returns the length of a list (LLEN).
	ListLength(ctx context.Context, key string) (int64, error)
}

// RedisLists implements ListOperations over a go-redis client.
type RedisLists struct {
	client redis.UniversalClient
}

// NewRedisLists wraps client.
func NewRedisLists(client redis.UniversalClient) *RedisLists {
	return &RedisLists{client: client}
}

func (r *RedisLists) ListPush(ctx context.Context, key string, value []byte) error {
	return r.client.RPush(ctx, key, value).Err()
}

func (r *RedisLists) ListPop(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.LPop(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

func (r *RedisLists) ListLength(ctx context.Context, key string) (int64, error) {
	return r.client.LLen(ctx, key).Result()
}

// Close closes the underlying client.
func (r *RedisLists) Close() error {
	return r.client.Close()
}

// RedisConfig holds connection settings for the Redis event queue.
type RedisConfig struct {
	Endpoints    []string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Prefix namespaces the list key (default "iso8583:events").
	Prefix string
}

// DialRedis connects and verifies the connection with PING. Several endpoints
// select a cluster client; DB applies to a single node only.
func DialRedis(cfg RedisConfig) (*RedisLists, error) {
	if len(cfg.Endpoints) == 0 {
		return nil, fmt.Errorf("at least one endpoint is required")
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:        cfg.Endpoints,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	timeout := cfg.DialTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewRedisLists(client), nil
}

// RedisQueue is a core.EventQueue stored in a single Redis list, so events
// survive restarts and can be drained by any process.
type RedisQueue struct {
	ops    ListOperations
	key    string
	logger zerolog.Logger
	closed atomic.Bool

	// closer is set when the queue owns its Redis connection.
	closer io.Closer
}

// NewRedisQueue creates a queue on ops. prefix defaults to "iso8583:events".
func NewRedisQueue(ops ListOperations, prefix string, logger zerolog.Logger) *RedisQueue {
	if prefix == "" {
		prefix = "iso8583:events"
	}
	return &RedisQueue{
		ops:    ops,
		key:    prefix + ":mapper",
		logger: logger.With().Str("component", "redis_queue").Logger(),
	}
}

// Key returns the Redis list key holding the events.
func (q *RedisQueue) Key() string {
	return q.key
}

// Publish appends event to the list.
func (q *RedisQueue) Publish(ctx context.Context, event *core.MapperEvent) error {
	if q.closed.Load() {
		return ErrQueueClosed
	}
	data, err := encodeEvent(event)
	if err != nil {
		return err
	}
	if err := q.ops.ListPush(ctx, q.key, data); err != nil {
		return fmt.Errorf("failed to enqueue mapper event: %w", err)
	}
	return nil
}

// Dequeue pops up to batchSize events. Entries that cannot be decoded are dropped.
func (q *RedisQueue) Dequeue(ctx context.Context, batchSize int) ([]*core.MapperEvent, error) {
	if q.closed.Load() {
		return nil, ErrQueueClosed
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	events := make([]*core.MapperEvent, 0, batchSize)
	for i := 0; i < batchSize; i++ {
		data, err := q.ops.ListPop(ctx, q.key)
		if err != nil {
			if len(events) == 0 {
				return nil, fmt.Errorf("failed to dequeue mapper event: %w", err)
			}
			break
		}
		if data == nil {
			break
		}
		event, err := decodeEvent(data)
		if err != nil {
			q.logger.Warn().Err(err).Msg("dropping undecodable event")
			continue
		}
		events = append(events, event)
	}
	return events, nil
}

// Size returns the list length, or 0 when Redis cannot be reached.
func (q *RedisQueue) Size() int {
	if q.closed.Load() {
		return 0
	}
	n, err := q.ops.ListLength(context.Background(), q.key)
	if err != nil {
		return 0
	}
	return int(n)
}

// Close marks the queue closed and releases the connection if the queue opened it.
func (q *RedisQueue) Close() error {
	if !q.closed.CompareAndSwap(false, true) {
		return nil
	}
	if q.closer != nil {
		return q.closer.Close()
	}
	return nil
}
