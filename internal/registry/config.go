// Package registry loads and validates the store configuration from files
// and the environment.
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rzpsarthak13/iso8583-persistence/internal/core"
	"github.com/rzpsarthak13/iso8583-persistence/internal/events"
)

// EnvPrefix prefixes every environment variable read by LoadFromEnv.
const EnvPrefix = "ISO8583_STORE_"

// ConfigManager handles loading and managing configuration from various sources.
type ConfigManager struct {
	config *InternalConfig

	// externalDB skips the database connection checks; the caller owns the connection.
	externalDB bool
}

// NewConfigManager creates a new configuration manager with default configuration.
func NewConfigManager() *ConfigManager {
	return &ConfigManager{
		config: DefaultInternalConfig(),
	}
}

// DefaultInternalConfig returns a configuration with defaults for every section.
// The database name and credentials have no default.
func DefaultInternalConfig() *InternalConfig {
	return &InternalConfig{
		Database: InternalDatabaseConfig{
			Type:              string(core.DialectMySQL),
			Host:              "localhost",
			Port:              3306,
			MaxOpenConns:      25,
			MaxIdleConns:      5,
			ConnMaxLifetime:   5 * time.Minute,
			ConnMaxIdleTime:   10 * time.Minute,
			ConnectionTimeout: 10 * time.Second,
		},
		Events: defaultPublisherConfig(events.TypeNone),
		Relay: InternalRelayConfig{
			Enabled:      false,
			Rate:         50,
			BatchSize:    10,
			PollInterval: 100 * time.Millisecond,
			MaxRetries:   3,
			RetryBackoff: 1 * time.Second,
			Target:       defaultPublisherConfig(events.TypeNone),
		},
		Export: InternalExportConfig{
			Region: "us-east-1",
			Prefix: "mappers",
		},
		Metrics: InternalMetricsConfig{
			Namespace: "iso8583",
		},
		Logging: InternalLoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

func defaultPublisherConfig(publisherType string) InternalPublisherConfig {
	return InternalPublisherConfig{
		Type:         publisherType,
		MemoryBuffer: 10000,
		RedisConfig: InternalRedisConfig{
			Endpoints:    []string{"localhost:6379"},
			DB:           0,
			PoolSize:     10,
			MinIdleConns: 5,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			Prefix:       "iso8583:events",
		},
		KafkaConfig: InternalKafkaConfig{
			Brokers:      []string{"localhost:9092"},
			Topic:        "iso8583.mapper-events",
			BatchSize:    100,
			BatchTimeout: 10 * time.Millisecond,
			WriteTimeout: 10 * time.Second,
			RequiredAcks: -1, // All replicas
		},
		DynamoDBConfig: InternalDynamoDBConfig{
			TableName: "iso8583_mapper_events",
		},
	}
}

// LoadFromFile loads configuration from a YAML or JSON file.
// The file format is determined by the file extension (.yaml, .yml, or .json).
func (cm *ConfigManager) LoadFromFile(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".yaml", ".yml":
		return cm.LoadFromYAML(data)
	case ".json":
		return cm.LoadFromJSON(data)
	default:
		return fmt.Errorf("unsupported config file format: %s (supported: .yaml, .yml, .json)", ext)
	}
}

// LoadFromYAML loads configuration from YAML data. Durations use Go syntax ("5s").
func (cm *ConfigManager) LoadFromYAML(data []byte) error {
	config := DefaultInternalConfig()
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, config); err != nil {
			return fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}
	return cm.apply(config)
}

// LoadFromJSON loads configuration from JSON data. Durations are nanoseconds.
func (cm *ConfigManager) LoadFromJSON(data []byte) error {
	config := DefaultInternalConfig()
	if len(data) > 0 {
		if err := json.Unmarshal(data, config); err != nil {
			return fmt.Errorf("failed to parse JSON config: %w", err)
		}
	}
	return cm.apply(config)
}

// LoadFromEnv overlays environment variables on the current configuration,
// which is the defaults unless a file was loaded first.
// Environment variables follow the pattern: ISO8583_STORE_<SECTION>_<KEY>
// Examples:
//   - ISO8583_STORE_DATABASE_TYPE=postgresql
//   - ISO8583_STORE_DATABASE_HOST=localhost
//   - ISO8583_STORE_EVENTS_TYPE=kafka
//   - ISO8583_STORE_EVENTS_KAFKA_BROKERS=kafka-1:9092,kafka-2:9092
//   - ISO8583_STORE_RELAY_ENABLED=true
func (cm *ConfigManager) LoadFromEnv() error {
	current := *cm.config
	config := &current
	env := envReader{prefix: EnvPrefix}

	// Database configuration
	env.stringVar("DATABASE_TYPE", &config.Database.Type)
	env.stringVar("DATABASE_HOST", &config.Database.Host)
	env.intVar("DATABASE_PORT", &config.Database.Port)
	env.stringVar("DATABASE_DATABASE", &config.Database.Database)
	env.stringVar("DATABASE_USERNAME", &config.Database.Username)
	env.stringVar("DATABASE_PASSWORD", &config.Database.Password)
	env.stringVar("DATABASE_SSL_MODE", &config.Database.SSLMode)
	env.stringVar("DATABASE_PATH", &config.Database.Path)
	env.intVar("DATABASE_MAX_OPEN_CONNS", &config.Database.MaxOpenConns)
	env.intVar("DATABASE_MAX_IDLE_CONNS", &config.Database.MaxIdleConns)
	env.durationVar("DATABASE_CONN_MAX_LIFETIME", &config.Database.ConnMaxLifetime)
	env.durationVar("DATABASE_CONNECTION_TIMEOUT", &config.Database.ConnectionTimeout)

	// Change events
	env.publisher("EVENTS_", &config.Events)

	// Relay
	env.boolVar("RELAY_ENABLED", &config.Relay.Enabled)
	env.intVar("RELAY_RATE", &config.Relay.Rate)
	env.intVar("RELAY_BATCH_SIZE", &config.Relay.BatchSize)
	env.durationVar("RELAY_POLL_INTERVAL", &config.Relay.PollInterval)
	env.intVar("RELAY_MAX_RETRIES", &config.Relay.MaxRetries)
	env.durationVar("RELAY_RETRY_BACKOFF", &config.Relay.RetryBackoff)
	env.publisher("RELAY_TARGET_", &config.Relay.Target)

	// Export
	env.boolVar("EXPORT_ENABLED", &config.Export.Enabled)
	env.stringVar("EXPORT_BUCKET", &config.Export.Bucket)
	env.stringVar("EXPORT_REGION", &config.Export.Region)
	env.stringVar("EXPORT_ENDPOINT", &config.Export.Endpoint)
	env.boolVar("EXPORT_PATH_STYLE", &config.Export.PathStyle)
	env.stringVar("EXPORT_PREFIX", &config.Export.Prefix)

	// Metrics and logging
	env.boolVar("METRICS_ENABLED", &config.Metrics.Enabled)
	env.stringVar("METRICS_NAMESPACE", &config.Metrics.Namespace)
	env.stringVar("LOGGING_LEVEL", &config.Logging.Level)
	env.stringVar("LOGGING_FORMAT", &config.Logging.Format)

	if len(env.errs) > 0 {
		return fmt.Errorf("invalid environment: %s", strings.Join(env.errs, "; "))
	}
	return cm.apply(config)
}

// UseExternalDatabase marks the database as supplied by the caller, so later loads
// do not require connection settings.
func (cm *ConfigManager) UseExternalDatabase() {
	cm.externalDB = true
}

// GetConfig returns the current internal configuration.
func (cm *ConfigManager) GetConfig() *InternalConfig {
	return cm.config
}

func (cm *ConfigManager) apply(config *InternalConfig) error {
	validate := ValidateConfig
	if cm.externalDB {
		validate = validateServices
	}
	if err := validate(config); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	cm.config = config
	return nil
}

// ValidateConfig validates the configuration and returns an error if invalid.
// Publisher sections are checked by the factory registered for their type.
func ValidateConfig(config *InternalConfig) error {
	if config == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if err := validateDatabase(config.Database); err != nil {
		return err
	}
	return validateServices(config)
}

func validateDatabase(db InternalDatabaseConfig) error {
	switch core.Dialect(db.Type) {
	case core.DialectMySQL, core.DialectPostgres:
		if db.Host == "" {
			return fmt.Errorf("database.host is required")
		}
		if db.Port <= 0 || db.Port > 65535 {
			return fmt.Errorf("database.port must be between 1 and 65535")
		}
		if db.Database == "" {
			return fmt.Errorf("database.database is required")
		}
		if db.Username == "" {
			return fmt.Errorf("database.username is required")
		}
		if db.MaxOpenConns <= 0 {
			return fmt.Errorf("database.max_open_conns must be greater than 0")
		}
	case core.DialectSQLite:
	case "":
		return fmt.Errorf("database.type is required")
	default:
		return fmt.Errorf("database.type must be 'mysql', 'postgresql' or 'sqlite'")
	}
	return nil
}

// validateServices checks every section except the database connection.
func validateServices(config *InternalConfig) error {
	if config == nil {
		return fmt.Errorf("config cannot be nil")
	}

	// Validate change events
	if err := events.Validate(config.Events.PublisherConfig()); err != nil {
		return fmt.Errorf("events validation failed: %w", err)
	}

	// Validate relay configuration
	if config.Relay.Enabled {
		if config.Events.Type != events.TypeMemory && config.Events.Type != events.TypeRedis {
			return fmt.Errorf("relay requires events.type 'memory' or 'redis', got: %q", config.Events.Type)
		}
		target := config.Relay.Target.Type
		if target == "" || target == events.TypeNone || target == events.TypeMemory {
			return fmt.Errorf("relay.target.type must be 'redis', 'kafka' or 'dynamodb'")
		}
		if err := events.Validate(config.Relay.Target.PublisherConfig()); err != nil {
			return fmt.Errorf("relay.target validation failed: %w", err)
		}
		if config.Relay.Rate <= 0 {
			return fmt.Errorf("relay.rate must be greater than 0")
		}
		if config.Relay.BatchSize <= 0 {
			return fmt.Errorf("relay.batch_size must be greater than 0")
		}
		if config.Relay.MaxRetries < 0 {
			return fmt.Errorf("relay.max_retries must be non-negative")
		}
	}

	// Validate export configuration
	if config.Export.Enabled && config.Export.Bucket == "" {
		return fmt.Errorf("export.bucket is required when export is enabled")
	}

	if config.Metrics.Enabled && config.Metrics.Namespace == "" {
		return fmt.Errorf("metrics.namespace is required when metrics are enabled")
	}

	return nil
}

// envReader overlays environment values and collects parse errors.
type envReader struct {
	prefix string
	errs   []string
}

func (e *envReader) lookup(key string) (string, bool) {
	val := os.Getenv(e.prefix + key)
	return val, val != ""
}

func (e *envReader) stringVar(key string, dst *string) {
	if val, ok := e.lookup(key); ok {
		*dst = val
	}
}

func (e *envReader) listVar(key string, dst *[]string) {
	if val, ok := e.lookup(key); ok {
		parts := strings.Split(val, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		*dst = out
	}
}

func (e *envReader) intVar(key string, dst *int) {
	if val, ok := e.lookup(key); ok {
		n, err := strconv.Atoi(val)
		if err != nil {
			e.errs = append(e.errs, fmt.Sprintf("%s%s: %v", e.prefix, key, err))
			return
		}
		*dst = n
	}
}

func (e *envReader) boolVar(key string, dst *bool) {
	if val, ok := e.lookup(key); ok {
		b, err := strconv.ParseBool(val)
		if err != nil {
			e.errs = append(e.errs, fmt.Sprintf("%s%s: %v", e.prefix, key, err))
			return
		}
		*dst = b
	}
}

func (e *envReader) durationVar(key string, dst *time.Duration) {
	if val, ok := e.lookup(key); ok {
		d, err := time.ParseDuration(val)
		if err != nil {
			e.errs = append(e.errs, fmt.Sprintf("%s%s: %v", e.prefix, key, err))
			return
		}
		*dst = d
	}
}

func (e *envReader) publisher(section string, dst *InternalPublisherConfig) {
	e.stringVar(section+"TYPE", &dst.Type)
	e.intVar(section+"MEMORY_BUFFER", &dst.MemoryBuffer)

	e.listVar(section+"REDIS_ENDPOINTS", &dst.RedisConfig.Endpoints)
	e.stringVar(section+"REDIS_PASSWORD", &dst.RedisConfig.Password)
	e.intVar(section+"REDIS_DB", &dst.RedisConfig.DB)
	e.intVar(section+"REDIS_POOL_SIZE", &dst.RedisConfig.PoolSize)
	e.stringVar(section+"REDIS_PREFIX", &dst.RedisConfig.Prefix)

	e.listVar(section+"KAFKA_BROKERS", &dst.KafkaConfig.Brokers)
	e.stringVar(section+"KAFKA_TOPIC", &dst.KafkaConfig.Topic)
	e.intVar(section+"KAFKA_REQUIRED_ACKS", &dst.KafkaConfig.RequiredAcks)

	e.stringVar(section+"DYNAMODB_REGION", &dst.DynamoDBConfig.Region)
	e.stringVar(section+"DYNAMODB_TABLE_NAME", &dst.DynamoDBConfig.TableName)
	e.stringVar(section+"DYNAMODB_ENDPOINT", &dst.DynamoDBConfig.Endpoint)
	e.durationVar(section+"DYNAMODB_TTL", &dst.DynamoDBConfig.TTL)
}
