package registry

import (
	"time"

	"github.com/rzpsarthak13/iso8583-persistence/internal/database"
	"github.com/rzpsarthak13/iso8583-persistence/internal/events"
	"github.com/rzpsarthak13/iso8583-persistence/internal/export"
)

// InternalConfig represents the internal configuration structure.
// The public Config in pkg/iso8583store converts into this type.
type InternalConfig struct {
	Database InternalDatabaseConfig  `yaml:"database" json:"database"`
	Events   InternalPublisherConfig `yaml:"events" json:"events"`
	Relay    InternalRelayConfig     `yaml:"relay" json:"relay"`
	Export   InternalExportConfig    `yaml:"export" json:"export"`
	Metrics  InternalMetricsConfig   `yaml:"metrics" json:"metrics"`
	Logging  InternalLoggingConfig   `yaml:"logging" json:"logging"`
}

// InternalDatabaseConfig contains configuration for the mapper database.
type InternalDatabaseConfig struct {
	Type              string        `yaml:"type" json:"type"`
	Host              string        `yaml:"host" json:"host"`
	Port              int           `yaml:"port" json:"port"`
	Database          string        `yaml:"database" json:"database"`
	Username          string        `yaml:"username" json:"username"`
	Password          string        `yaml:"password" json:"password"`
	SSLMode           string        `yaml:"ssl_mode,omitempty" json:"ssl_mode,omitempty"`
	Path              string        `yaml:"path,omitempty" json:"path,omitempty"`
	MaxOpenConns      int           `yaml:"max_open_conns" json:"max_open_conns"`
	MaxIdleConns      int           `yaml:"max_idle_conns" json:"max_idle_conns"`
	ConnMaxLifetime   time.Duration `yaml:"conn_max_lifetime" json:"conn_max_lifetime"`
	ConnMaxIdleTime   time.Duration `yaml:"conn_max_idle_time" json:"conn_max_idle_time"`
	ConnectionTimeout time.Duration `yaml:"connection_timeout" json:"connection_timeout"`
}

// InternalPublisherConfig selects a change-event backend.
type InternalPublisherConfig struct {
	Type           string                 `yaml:"type" json:"type"`
	MemoryBuffer   int                    `yaml:"memory_buffer,omitempty" json:"memory_buffer,omitempty"`
	RedisConfig    InternalRedisConfig    `yaml:"redis_config,omitempty" json:"redis_config,omitempty"`
	KafkaConfig    InternalKafkaConfig    `yaml:"kafka_config,omitempty" json:"kafka_config,omitempty"`
	DynamoDBConfig InternalDynamoDBConfig `yaml:"dynamodb_config,omitempty" json:"dynamodb_config,omitempty"`
}

// InternalRedisConfig contains Redis-specific configuration.
type InternalRedisConfig struct {
	Endpoints    []string      `yaml:"endpoints" json:"endpoints"`
	Password     string        `yaml:"password,omitempty" json:"password,omitempty"`
	DB           int           `yaml:"db" json:"db"`
	PoolSize     int           `yaml:"pool_size" json:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns" json:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout" json:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout"`
	Prefix       string        `yaml:"prefix" json:"prefix"`
}

// InternalKafkaConfig contains Kafka producer configuration.
type InternalKafkaConfig struct {
	Brokers      []string      `yaml:"brokers" json:"brokers"`
	Topic        string        `yaml:"topic" json:"topic"`
	BatchSize    int           `yaml:"batch_size" json:"batch_size"`
	BatchTimeout time.Duration `yaml:"batch_timeout" json:"batch_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout"`
	RequiredAcks int           `yaml:"required_acks" json:"required_acks"`
}

// InternalDynamoDBConfig contains DynamoDB journal configuration.
type InternalDynamoDBConfig struct {
	Region          string        `yaml:"region" json:"region"`
	TableName       string        `yaml:"table_name" json:"table_name"`
	Endpoint        string        `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	AccessKeyID     string        `yaml:"access_key_id,omitempty" json:"access_key_id,omitempty"`
	SecretAccessKey string        `yaml:"secret_access_key,omitempty" json:"secret_access_key,omitempty"`
	TTL             time.Duration `yaml:"ttl,omitempty" json:"ttl,omitempty"`
}

// InternalRelayConfig configures forwarding from the events outbox to Target.
type InternalRelayConfig struct {
	Enabled      bool                    `yaml:"enabled" json:"enabled"`
	Rate         int                     `yaml:"rate" json:"rate"`
	BatchSize    int                     `yaml:"batch_size" json:"batch_size"`
	PollInterval time.Duration           `yaml:"poll_interval" json:"poll_interval"`
	MaxRetries   int                     `yaml:"max_retries" json:"max_retries"`
	RetryBackoff time.Duration           `yaml:"retry_backoff" json:"retry_backoff"`
	Target       InternalPublisherConfig `yaml:"target" json:"target"`
}

// InternalExportConfig configures mapper export to S3.
type InternalExportConfig struct {
	Enabled         bool   `yaml:"enabled" json:"enabled"`
	Bucket          string `yaml:"bucket" json:"bucket"`
	Region          string `yaml:"region" json:"region"`
	Endpoint        string `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	AccessKeyID     string `yaml:"access_key_id,omitempty" json:"access_key_id,omitempty"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty" json:"secret_access_key,omitempty"`
	PathStyle       bool   `yaml:"path_style" json:"path_style"`
	Prefix          string `yaml:"prefix" json:"prefix"`
}

// InternalMetricsConfig configures Prometheus metrics.
type InternalMetricsConfig struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	Namespace string `yaml:"namespace" json:"namespace"`
}

// InternalLoggingConfig configures the zerolog logger.
type InternalLoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// DatabaseConfig converts the database section for database.Open.
func (c *InternalConfig) DatabaseConfig() database.Config {
	d := c.Database
	return database.Config{
		Type:              d.Type,
		Host:              d.Host,
		Port:              d.Port,
		Database:          d.Database,
		Username:          d.Username,
		Password:          d.Password,
		SSLMode:           d.SSLMode,
		Path:              d.Path,
		MaxOpenConns:      d.MaxOpenConns,
		MaxIdleConns:      d.MaxIdleConns,
		ConnMaxLifetime:   d.ConnMaxLifetime,
		ConnMaxIdleTime:   d.ConnMaxIdleTime,
		ConnectionTimeout: d.ConnectionTimeout,
	}
}

// PublisherConfig converts a publisher section for events.Create.
func (p InternalPublisherConfig) PublisherConfig() events.PublisherConfig {
	return events.PublisherConfig{
		Type:         p.Type,
		MemoryBuffer: p.MemoryBuffer,
		Redis: events.RedisConfig{
			Endpoints:    p.RedisConfig.Endpoints,
			Password:     p.RedisConfig.Password,
			DB:           p.RedisConfig.DB,
			PoolSize:     p.RedisConfig.PoolSize,
			MinIdleConns: p.RedisConfig.MinIdleConns,
			DialTimeout:  p.RedisConfig.DialTimeout,
			ReadTimeout:  p.RedisConfig.ReadTimeout,
			WriteTimeout: p.RedisConfig.WriteTimeout,
			Prefix:       p.RedisConfig.Prefix,
		},
		Kafka: events.KafkaConfig{
			Brokers:      p.KafkaConfig.Brokers,
			Topic:        p.KafkaConfig.Topic,
			BatchSize:    p.KafkaConfig.BatchSize,
			BatchTimeout: p.KafkaConfig.BatchTimeout,
			WriteTimeout: p.KafkaConfig.WriteTimeout,
			RequiredAcks: p.KafkaConfig.RequiredAcks,
		},
		DynamoDB: events.DynamoDBConfig{
			Region:          p.DynamoDBConfig.Region,
			TableName:       p.DynamoDBConfig.TableName,
			Endpoint:        p.DynamoDBConfig.Endpoint,
			AccessKeyID:     p.DynamoDBConfig.AccessKeyID,
			SecretAccessKey: p.DynamoDBConfig.SecretAccessKey,
			TTL:             p.DynamoDBConfig.TTL,
		},
	}
}

// RelayConfig converts the relay section for events.NewRelay.
func (c *InternalConfig) RelayConfig() events.RelayConfig {
	return events.RelayConfig{
		Rate:         c.Relay.Rate,
		BatchSize:    c.Relay.BatchSize,
		PollInterval: c.Relay.PollInterval,
		MaxRetries:   c.Relay.MaxRetries,
		RetryBackoff: c.Relay.RetryBackoff,
	}
}

// S3Config converts the export section for export.NewS3Sink.
func (c *InternalConfig) S3Config() export.S3Config {
	return export.S3Config{
		Region:          c.Export.Region,
		Bucket:          c.Export.Bucket,
		Endpoint:        c.Export.Endpoint,
		AccessKeyID:     c.Export.AccessKeyID,
		SecretAccessKey: c.Export.SecretAccessKey,
		PathStyle:       c.Export.PathStyle,
	}
}
