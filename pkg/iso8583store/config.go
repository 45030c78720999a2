package iso8583store

import (
	"time"
)

// Config represents the root configuration for the mapper store client.
// Zero fields fall back to the built-in defaults.
type Config struct {
	// Database contains configuration for the mapper database.
	Database DatabaseConfig `yaml:"database" json:"database"`

	// Events selects where change events are published after each commit.
	Events PublisherConfig `yaml:"events" json:"events"`

	// Relay forwards events from a queue publisher to a downstream broker.
	Relay RelayConfig `yaml:"relay" json:"relay"`

	// Export configures mapper export to S3.
	Export ExportConfig `yaml:"export" json:"export"`

	// Metrics configures Prometheus instrumentation of store operations.
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`

	// Logging configures the client logger.
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// DatabaseConfig contains configuration for the mapper database.
type DatabaseConfig struct {
	// Type specifies the database type: "mysql", "postgresql" or "sqlite".
	Type string `yaml:"type,omitempty" json:"type,omitempty"`

	// Host is the database host address.
	Host string `yaml:"host,omitempty" json:"host,omitempty"`

	// Port is the database port number.
	Port int `yaml:"port,omitempty" json:"port,omitempty"`

	// Database is the database name.
	Database string `yaml:"database" json:"database"`

	// Username is the database username.
	Username string `yaml:"username,omitempty" json:"username,omitempty"`

	// Password is the database password.
	Password string `yaml:"password,omitempty" json:"password,omitempty"`

	// SSLMode is the SSL mode for PostgreSQL (e.g., "require", "disable", "verify-full").
	SSLMode string `yaml:"ssl_mode,omitempty" json:"ssl_mode,omitempty"`

	// Path is the SQLite database file. ":memory:" is accepted.
	Path string `yaml:"path,omitempty" json:"path,omitempty"`

	// MaxOpenConns is the maximum number of open connections to the database.
	MaxOpenConns int `yaml:"max_open_conns,omitempty" json:"max_open_conns,omitempty"`

	// MaxIdleConns is the maximum number of idle connections in the pool.
	MaxIdleConns int `yaml:"max_idle_conns,omitempty" json:"max_idle_conns,omitempty"`

	// ConnMaxLifetime is the maximum amount of time a connection may be reused.
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime,omitempty" json:"conn_max_lifetime,omitempty"`

	// ConnMaxIdleTime is the maximum amount of time a connection may be idle.
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time,omitempty" json:"conn_max_idle_time,omitempty"`

	// ConnectionTimeout is the timeout for establishing database connections.
	ConnectionTimeout time.Duration `yaml:"connection_timeout,omitempty" json:"connection_timeout,omitempty"`
}

// PublisherConfig selects a change-event backend.
type PublisherConfig struct {
	// Type is one of "none", "memory", "redis", "kafka" or "dynamodb".
	Type string `yaml:"type,omitempty" json:"type,omitempty"`

	// MemoryBuffer is the capacity of the in-memory queue. Only the relay
	// drains a memory queue: without Relay.Enabled the caller must dequeue
	// from Client.Publisher itself, or change events are dropped once
	// MemoryBuffer events are pending.
	MemoryBuffer int `yaml:"memory_buffer,omitempty" json:"memory_buffer,omitempty"`

	RedisConfig    RedisConfig    `yaml:"redis_config,omitempty" json:"redis_config,omitempty"`
	KafkaConfig    KafkaConfig    `yaml:"kafka_config,omitempty" json:"kafka_config,omitempty"`
	DynamoDBConfig DynamoDBConfig `yaml:"dynamodb_config,omitempty" json:"dynamodb_config,omitempty"`
}

// RedisConfig contains configuration for the Redis list queue.
type RedisConfig struct {
	Endpoints    []string      `yaml:"endpoints,omitempty" json:"endpoints,omitempty"`
	Password     string        `yaml:"password,omitempty" json:"password,omitempty"`
	DB           int           `yaml:"db,omitempty" json:"db,omitempty"`
	PoolSize     int           `yaml:"pool_size,omitempty" json:"pool_size,omitempty"`
	MinIdleConns int           `yaml:"min_idle_conns,omitempty" json:"min_idle_conns,omitempty"`
	DialTimeout  time.Duration `yaml:"dial_timeout,omitempty" json:"dial_timeout,omitempty"`
	ReadTimeout  time.Duration `yaml:"read_timeout,omitempty" json:"read_timeout,omitempty"`
	WriteTimeout time.Duration `yaml:"write_timeout,omitempty" json:"write_timeout,omitempty"`

	// Prefix namespaces the list key: {prefix}:mapper.
	Prefix string `yaml:"prefix,omitempty" json:"prefix,omitempty"`
}

// KafkaConfig contains Kafka producer configuration.
type KafkaConfig struct {
	Brokers      []string      `yaml:"brokers,omitempty" json:"brokers,omitempty"`
	Topic        string        `yaml:"topic,omitempty" json:"topic,omitempty"`
	BatchSize    int           `yaml:"batch_size,omitempty" json:"batch_size,omitempty"`
	BatchTimeout time.Duration `yaml:"batch_timeout,omitempty" json:"batch_timeout,omitempty"`
	WriteTimeout time.Duration `yaml:"write_timeout,omitempty" json:"write_timeout,omitempty"`

	// RequiredAcks is 0, 1 or -1 (all replicas).
	RequiredAcks int `yaml:"required_acks,omitempty" json:"required_acks,omitempty"`
}

// DynamoDBConfig contains configuration for the DynamoDB event journal.
type DynamoDBConfig struct {
	Region    string `yaml:"region,omitempty" json:"region,omitempty"`
	TableName string `yaml:"table_name,omitempty" json:"table_name,omitempty"`

	// Endpoint overrides the service endpoint (e.g., "http://localhost:4566" for LocalStack).
	Endpoint string `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`

	// AccessKeyID and SecretAccessKey are optional; default AWS credentials are used otherwise.
	AccessKeyID     string `yaml:"access_key_id,omitempty" json:"access_key_id,omitempty"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty" json:"secret_access_key,omitempty"`

	// TTL expires journal items. Zero keeps them.
	TTL time.Duration `yaml:"ttl,omitempty" json:"ttl,omitempty"`
}

// RelayConfig configures the background event relay.
type RelayConfig struct {
	Enabled bool `yaml:"enabled,omitempty" json:"enabled,omitempty"`

	// Rate is the maximum number of events forwarded per second.
	Rate int `yaml:"rate,omitempty" json:"rate,omitempty"`

	BatchSize    int           `yaml:"batch_size,omitempty" json:"batch_size,omitempty"`
	PollInterval time.Duration `yaml:"poll_interval,omitempty" json:"poll_interval,omitempty"`
	MaxRetries   int           `yaml:"max_retries,omitempty" json:"max_retries,omitempty"`

	// RetryBackoff is the base duration for exponential backoff retries.
	RetryBackoff time.Duration `yaml:"retry_backoff,omitempty" json:"retry_backoff,omitempty"`

	// Target is the downstream publisher: "redis", "kafka" or "dynamodb".
	Target PublisherConfig `yaml:"target,omitempty" json:"target,omitempty"`
}

// ExportConfig configures mapper export to an S3 bucket.
type ExportConfig struct {
	Enabled         bool   `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	Bucket          string `yaml:"bucket,omitempty" json:"bucket,omitempty"`
	Region          string `yaml:"region,omitempty" json:"region,omitempty"`
	Endpoint        string `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	AccessKeyID     string `yaml:"access_key_id,omitempty" json:"access_key_id,omitempty"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty" json:"secret_access_key,omitempty"`

	// PathStyle addresses the bucket as a path, required by most S3 emulators.
	PathStyle bool `yaml:"path_style,omitempty" json:"path_style,omitempty"`

	// Prefix is the leading key segment, default "mappers".
	Prefix string `yaml:"prefix,omitempty" json:"prefix,omitempty"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	Namespace string `yaml:"namespace,omitempty" json:"namespace,omitempty"`
}

// LoggingConfig configures the zerolog logger.
type LoggingConfig struct {
	// Level is one of "debug", "info", "warn" or "error".
	Level string `yaml:"level,omitempty" json:"level,omitempty"`

	// Format is "json" or "console".
	Format string `yaml:"format,omitempty" json:"format,omitempty"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Type:              "mysql",
			Host:              "localhost",
			Port:              3306,
			MaxOpenConns:      25,
			MaxIdleConns:      5,
			ConnMaxLifetime:   5 * time.Minute,
			ConnMaxIdleTime:   10 * time.Minute,
			ConnectionTimeout: 10 * time.Second,
		},
		Events: PublisherConfig{
			Type:         "none",
			MemoryBuffer: 10000,
		},
		Relay: RelayConfig{
			Rate:         50,
			BatchSize:    10,
			PollInterval: 100 * time.Millisecond,
			MaxRetries:   3,
			RetryBackoff: 1 * time.Second,
			Target:       PublisherConfig{Type: "none"},
		},
		Export: ExportConfig{
			Region: "us-east-1",
			Prefix: "mappers",
		},
		Metrics: MetricsConfig{
			Namespace: "iso8583",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
