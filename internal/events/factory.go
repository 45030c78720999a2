package events

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/rzpsarthak13/iso8583-persistence/internal/core"
)

// Publisher backend types.
const (
	TypeNone     = "none"
	TypeMemory   = "memory"
	TypeRedis    = "redis"
	TypeKafka    = "kafka"
	TypeDynamoDB = "dynamodb"
)

// PublisherConfig selects and configures one publisher backend.
type PublisherConfig struct {
	Type string

	// MemoryBuffer bounds the in-memory queue. Nothing drains it but a Relay
	// or an explicit Dequeue.
	MemoryBuffer int

	Redis    RedisConfig
	Kafka    KafkaConfig
	DynamoDB DynamoDBConfig
}

// PublisherFactory creates publishers for one backend type.
// Each backend registers its factory from init.
type PublisherFactory interface {
	// Type returns the backend identifier, e.g. "redis".
	Type() string

	// Validate checks the settings specific to this backend.
	Validate(cfg PublisherConfig) error

	// Create builds a connected publisher.
	Create(ctx context.Context, cfg PublisherConfig, logger zerolog.Logger) (core.EventPublisher, error)
}

var (
	factoryRegistry = make(map[string]PublisherFactory)
	registryMutex   sync.RWMutex
)

// RegisterFactory adds factory to the registry. It panics on a nil factory,
// an empty type or a duplicate registration.
func RegisterFactory(factory PublisherFactory) {
	if factory == nil {
		panic("factory cannot be nil")
	}
	if factory.Type() == "" {
		panic("factory type cannot be empty")
	}

	registryMutex.Lock()
	defer registryMutex.Unlock()

	if _, exists := factoryRegistry[factory.Type()]; exists {
		panic(fmt.Sprintf("factory for type %q is already registered", factory.Type()))
	}
	factoryRegistry[factory.Type()] = factory
}

// Create validates cfg and builds a publisher with the factory registered for cfg.Type.
func Create(ctx context.Context, cfg PublisherConfig, logger zerolog.Logger) (core.EventPublisher, error) {
	if cfg.Type == "" {
		return nil, fmt.Errorf("publisher type is required")
	}

	registryMutex.RLock()
	factory, exists := factoryRegistry[cfg.Type]
	registryMutex.RUnlock()
	if !exists {
		return nil, fmt.Errorf("unsupported publisher type: %s", cfg.Type)
	}

	if err := factory.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", cfg.Type, err)
	}
	return factory.Create(ctx, cfg, logger)
}

// Validate checks cfg against the factory registered for its type.
// TypeNone and an empty type are always valid.
func Validate(cfg PublisherConfig) error {
	if cfg.Type == "" || cfg.Type == TypeNone {
		return nil
	}
	registryMutex.RLock()
	factory, exists := factoryRegistry[cfg.Type]
	registryMutex.RUnlock()
	if !exists {
		return fmt.Errorf("unsupported publisher type: %s", cfg.Type)
	}
	return factory.Validate(cfg)
}

// RegisteredTypes returns the registered backend types in sorted order.
func RegisteredTypes() []string {
	registryMutex.RLock()
	defer registryMutex.RUnlock()

	types := make([]string, 0, len(factoryRegistry))
	for t := range factoryRegistry {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// IsTypeRegistered reports whether a factory exists for publisherType.
func IsTypeRegistered(publisherType string) bool {
	registryMutex.RLock()
	defer registryMutex.RUnlock()
	_, exists := factoryRegistry[publisherType]
	return exists
}

type memoryFactory struct{}

func (memoryFactory) Type() string { return TypeMemory }

func (memoryFactory) Validate(cfg PublisherConfig) error {
	if cfg.MemoryBuffer < 0 {
		return fmt.Errorf("memory_buffer must be non-negative, got: %d", cfg.MemoryBuffer)
	}
	return nil
}

func (memoryFactory) Create(_ context.Context, cfg PublisherConfig, _ zerolog.Logger) (core.EventPublisher, error) {
	return NewMemoryQueue(cfg.MemoryBuffer), nil
}

type redisFactory struct{}

func (redisFactory) Type() string { return TypeRedis }

func (redisFactory) Validate(cfg PublisherConfig) error {
	rc := cfg.Redis
	if len(rc.Endpoints) == 0 {
		return fmt.Errorf("at least one endpoint is required for Redis")
	}
	if rc.DB < 0 || rc.DB > 15 {
		return fmt.Errorf("Redis DB must be between 0 and 15, got: %d", rc.DB)
	}
	if rc.PoolSize < 0 {
		return fmt.Errorf("pool_size must be non-negative, got: %d", rc.PoolSize)
	}
	if rc.MinIdleConns < 0 {
		return fmt.Errorf("min_idle_conns must be non-negative, got: %d", rc.MinIdleConns)
	}
	return nil
}

func (redisFactory) Create(_ context.Context, cfg PublisherConfig, logger zerolog.Logger) (core.EventPublisher, error) {
	lists, err := DialRedis(cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis event queue: %w", err)
	}
	q := NewRedisQueue(lists, cfg.Redis.Prefix, logger)
	q.closer = lists
	return q, nil
}

type kafkaFactory struct{}

func (kafkaFactory) Type() string { return TypeKafka }

func (kafkaFactory) Validate(cfg PublisherConfig) error {
	kc := cfg.Kafka
	if len(kc.Brokers) == 0 {
		return fmt.Errorf("at least one broker is required for Kafka")
	}
	if kc.Topic == "" {
		return fmt.Errorf("topic is required for Kafka")
	}
	if kc.RequiredAcks < -1 || kc.RequiredAcks > 1 {
		return fmt.Errorf("required_acks must be -1, 0 or 1, got: %d", kc.RequiredAcks)
	}
	return nil
}

func (kafkaFactory) Create(_ context.Context, cfg PublisherConfig, logger zerolog.Logger) (core.EventPublisher, error) {
	p, err := NewKafkaPublisher(cfg.Kafka, logger)
	if err != nil {
		return nil, err
	}
	return p, nil
}

type dynamoDBFactory struct{}

func (dynamoDBFactory) Type() string { return TypeDynamoDB }

func (dynamoDBFactory) Validate(cfg PublisherConfig) error {
	if cfg.DynamoDB.Region == "" {
		return fmt.Errorf("region is required for DynamoDB")
	}
	if cfg.DynamoDB.TableName == "" {
		return fmt.Errorf("table_name is required for DynamoDB")
	}
	if cfg.DynamoDB.TTL < 0 {
		return fmt.Errorf("ttl must be non-negative, got: %v", cfg.DynamoDB.TTL)
	}
	return nil
}

func (dynamoDBFactory) Create(ctx context.Context, cfg PublisherConfig, logger zerolog.Logger) (core.EventPublisher, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	j, err := NewDynamoDBJournal(ctx, cfg.DynamoDB, logger)
	if err != nil {
		return nil, err
	}
	return j, nil
}

func init() {
	RegisterFactory(memoryFactory{})
	RegisterFactory(redisFactory{})
	RegisterFactory(kafkaFactory{})
	RegisterFactory(dynamoDBFactory{})
}
