// Package client wires the database, mapper store, change events, relay,
// metrics and export into one lifecycle.
package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/rzpsarthak13/iso8583-persistence/internal/core"
	"github.com/rzpsarthak13/iso8583-persistence/internal/database"
	"github.com/rzpsarthak13/iso8583-persistence/internal/events"
	"github.com/rzpsarthak13/iso8583-persistence/internal/export"
	"github.com/rzpsarthak13/iso8583-persistence/internal/logging"
	"github.com/rzpsarthak13/iso8583-persistence/internal/metrics"
	"github.com/rzpsarthak13/iso8583-persistence/internal/registry"
	"github.com/rzpsarthak13/iso8583-persistence/internal/store"
)

var (
	// ErrClientClosed is returned by operations on a closed client.
	ErrClientClosed = errors.New("client is closed")

	// ErrExportDisabled is returned by Export when no sink is configured.
	ErrExportDisabled = errors.New("mapper export is not configured")

	// ErrRelayDisabled is returned by Start when the relay is not enabled.
	ErrRelayDisabled = errors.New("event relay is not enabled")
)

// ConfigProvider is an interface to provide configuration as YAML without importing the public package.
type ConfigProvider interface {
	GetYAML() ([]byte, error)
}

// Dependencies overrides what NewClientImpl would otherwise build from config.
// Zero fields are built from config.
type Dependencies struct {
	Logger     *zerolog.Logger
	Registerer prometheus.Registerer

	// Database is owned by the caller and not closed by Close.
	Database core.Database

	ExportSink export.Sink
}

// ClientImpl is the default implementation behind the public client.
type ClientImpl struct {
	mu        sync.RWMutex
	configMgr *registry.ConfigManager
	logger    zerolog.Logger

	database  core.Database
	ownsDB    bool
	store     *store.MapperStore
	publisher core.EventPublisher
	relay     *events.Relay
	target    core.EventPublisher
	exporter  *export.Exporter
	closed    bool
}

// NewClientImpl loads the configuration and opens every configured backend.
// Anything opened before a failure is closed again.
func NewClientImpl(ctx context.Context, configProvider ConfigProvider, deps Dependencies) (*ClientImpl, error) {
	if configProvider == nil {
		return nil, fmt.Errorf("config provider cannot be nil")
	}

	configMgr := newConfigManager(deps)
	yamlData, err := configProvider.GetYAML()
	if err != nil {
		return nil, fmt.Errorf("failed to get config YAML: %w", err)
	}
	if err := configMgr.LoadFromYAML(yamlData); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return newClientImpl(ctx, configMgr, deps)
}

// NewClientImplFromEnv loads the file at path, when set, and then applies
// ISO8583_STORE_* environment overrides.
func NewClientImplFromEnv(ctx context.Context, path string, deps Dependencies) (*ClientImpl, error) {
	configMgr := newConfigManager(deps)
	if path != "" {
		if err := configMgr.LoadFromFile(path); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}
	if err := configMgr.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return newClientImpl(ctx, configMgr, deps)
}

func newConfigManager(deps Dependencies) *registry.ConfigManager {
	configMgr := registry.NewConfigManager()
	if deps.Database != nil {
		configMgr.UseExternalDatabase()
	}
	return configMgr
}

func newClientImpl(ctx context.Context, configMgr *registry.ConfigManager, deps Dependencies) (*ClientImpl, error) {
	config := configMgr.GetConfig()

	logger := logging.New(config.Logging.Level, config.Logging.Format, nil)
	if deps.Logger != nil {
		logger = *deps.Logger
	}

	c := &ClientImpl{
		configMgr: configMgr,
		logger:    logger.With().Str("component", "client").Logger(),
	}
	if err := c.initialize(ctx, config, deps, logger); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

func (c *ClientImpl) initialize(ctx context.Context, config *registry.InternalConfig, deps Dependencies, logger zerolog.Logger) error {
	// Database
	if deps.Database != nil {
		c.database = deps.Database
	} else {
		db, err := database.Open(config.DatabaseConfig(), logger)
		if err != nil {
			return fmt.Errorf("failed to create database: %w", err)
		}
		c.database = db
		c.ownsDB = true
	}

	storeOpts := []store.Option{store.WithLogger(logger)}

	// Metrics
	if config.Metrics.Enabled {
		reg := deps.Registerer
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		rec, err := metrics.NewPrometheusRecorder(config.Metrics.Namespace, reg)
		if err != nil {
			return fmt.Errorf("failed to register metrics: %w", err)
		}
		storeOpts = append(storeOpts, store.WithMetrics(rec))
	}

	// Change events
	if t := config.Events.Type; t != "" && t != events.TypeNone {
		publisher, err := events.Create(ctx, config.Events.PublisherConfig(), logger)
		if err != nil {
			return fmt.Errorf("failed to create event publisher: %w", err)
		}
		c.publisher = publisher
		storeOpts = append(storeOpts, store.WithPublisher(publisher))
		if t == events.TypeMemory && !config.Relay.Enabled {
			c.logger.Warn().
				Int("memory_buffer", config.Events.MemoryBuffer).
				Msg("memory events without relay are only drained by explicit dequeue")
		}
	}

	// Relay from the outbox queue to the downstream broker
	if config.Relay.Enabled {
		queue, ok := c.publisher.(core.EventQueue)
		if !ok {
			return fmt.Errorf("relay requires a queue publisher, got %q", config.Events.Type)
		}
		target, err := events.Create(ctx, config.Relay.Target.PublisherConfig(), logger)
		if err != nil {
			return fmt.Errorf("failed to create relay target: %w", err)
		}
		c.target = target
		c.relay = events.NewRelay(queue, target, config.RelayConfig(), logger)
	}

	// Export
	sink := deps.ExportSink
	if sink == nil && config.Export.Enabled {
		s3Sink, err := export.NewS3Sink(ctx, config.S3Config())
		if err != nil {
			return fmt.Errorf("failed to create export sink: %w", err)
		}
		sink = s3Sink
	}
	if sink != nil {
		c.exporter = export.NewExporter(sink, config.Export.Prefix, logger)
	}

	c.store = store.NewMapperStore(c.database, storeOpts...)
	c.logger.Info().
		Str("database", string(c.database.Dialect())).
		Str("events", config.Events.Type).
		Bool("relay", c.relay != nil).
		Bool("export", c.exporter != nil).
		Msg("client initialized")
	return nil
}

// Store returns the mapper store.
func (c *ClientImpl) Store() *store.MapperStore {
	return c.store
}

// Config returns the effective configuration.
func (c *ClientImpl) Config() *registry.InternalConfig {
	return c.configMgr.GetConfig()
}

// Publisher returns the configured event publisher, or nil.
func (c *ClientImpl) Publisher() core.EventPublisher {
	return c.publisher
}

// Relay returns the relay, or nil when it is not enabled.
func (c *ClientImpl) Relay() *events.Relay {
	return c.relay
}

// Export loads the mapper with id and writes it to the export sink.
func (c *ClientImpl) Export(ctx context.Context, id string) (string, error) {
	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return "", ErrClientClosed
	}
	if c.exporter == nil {
		return "", ErrExportDisabled
	}
	if strings.TrimSpace(id) == "" {
		return "", fmt.Errorf("mapper id cannot be blank")
	}

	m, err := c.store.FindOne(ctx, id)
	if err != nil {
		return "", err
	}
	return c.exporter.Export(ctx, m)
}

// Start launches the relay.
func (c *ClientImpl) Start(ctx context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClientClosed
	}
	if c.relay == nil {
		return ErrRelayDisabled
	}
	return c.relay.Start(ctx)
}

// Stop stops the relay and waits for the in-flight event.
func (c *ClientImpl) Stop() error {
	if c.relay == nil {
		return nil
	}
	return c.relay.Stop()
}

// IsRunning reports whether the relay is running.
func (c *ClientImpl) IsRunning() bool {
	return c.relay != nil && c.relay.IsRunning()
}

// Close stops the relay and releases every backend the client opened.
func (c *ClientImpl) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	var errs []error
	if err := c.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("stop relay: %w", err))
	}
	if c.target != nil {
		if err := c.target.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close relay target: %w", err))
		}
	}
	if c.publisher != nil {
		if err := c.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close publisher: %w", err))
		}
	}
	if c.ownsDB && c.database != nil {
		if err := c.database.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	if len(errs) > 0 {
		c.logger.Warn().Errs("errors", errs).Msg("close finished with errors")
	}
	return errors.Join(errs...)
}
