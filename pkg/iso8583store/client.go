// Package iso8583store persists ISO 8583 mappers and their data elements in a
// relational database, and optionally publishes change events, relays them to a
// broker and exports mappers to S3.
//
// Typical usage:
//
//	client, _ := iso8583store.NewClient(config)
//	defer client.Close()
//
//	m := iso8583store.NewMapper("visa-auth", "Visa authorization")
//	m.Put(2, &iso8583store.DataElement{Type: iso8583store.TypeNumeric, LengthType: iso8583store.LengthLLVar, Length: iso8583store.IntPtr(19)})
//	client.Mappers().Save(ctx, m)
//
//	client.Start(ctx) // forward change events when the relay is enabled
//	defer client.Stop()
package iso8583store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/rzpsarthak13/iso8583-persistence/internal/client"
	"github.com/rzpsarthak13/iso8583-persistence/internal/core"
	"github.com/rzpsarthak13/iso8583-persistence/internal/database"
)

// MapperStore persists mappers together with their data elements.
type MapperStore interface {
	// Save inserts the mapper and its data elements in one transaction under a
	// freshly generated id, which is assigned to m.ID on success.
	Save(ctx context.Context, m *Mapper) error

	// Delete removes the mapper and all of its data elements in one transaction.
	Delete(ctx context.Context, m *Mapper) error

	// FindOne loads the mapper with the given id.
	// It fails with ErrIncorrectResultSize unless exactly one row matches.
	FindOne(ctx context.Context, id string) (*Mapper, error)

	// FindByName loads the mapper with the given name.
	// It fails with ErrIncorrectResultSize unless exactly one row matches.
	FindByName(ctx context.Context, name string) (*Mapper, error)

	// Count returns the number of stored mappers.
	Count(ctx context.Context) (int64, error)

	// FindAll returns a page of mappers ordered by id. A nil start or rows
	// leaves that bound open.
	FindAll(ctx context.Context, start, rows *int) ([]*Mapper, error)
}

// Client is the main interface for the mapper store.
type Client interface {
	// Mappers returns the mapper store.
	Mappers() MapperStore

	// Export writes the mapper with the given id to the export sink and returns its key.
	// Returns ErrExportDisabled when export is not configured.
	Export(ctx context.Context, id string) (string, error)

	// Start starts the background event relay. This is non-blocking.
	// Returns ErrRelayDisabled when the relay is not enabled.
	Start(ctx context.Context) error

	// Stop gracefully stops the relay.
	Stop() error

	// IsRunning returns whether the relay is running.
	IsRunning() bool

	// Stats returns relay counters.
	Stats() Stats

	// Close stops the relay and closes all connections the client opened.
	Close() error
}

// Stats reports the state of the event relay.
type Stats struct {
	Running   bool
	Queued    int
	Forwarded int64
	Dropped   int64
}

// ExportSink receives exported mapper documents.
type ExportSink interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
}

// Option customizes a client.
type Option func(*options)

type options struct {
	logger     *zerolog.Logger
	registerer prometheus.Registerer
	sink       ExportSink
}

// WithLogger replaces the logger built from Config.Logging.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = &logger
	}
}

// WithRegisterer registers metrics on reg instead of the default registry.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

// WithExportSink exports to sink instead of the S3 bucket in Config.Export.
func WithExportSink(sink ExportSink) Option {
	return func(o *options) {
		o.sink = sink
	}
}

// configProvider implements client.ConfigProvider to provide config as YAML without import cycles.
type configProvider struct {
	config *Config
}

func (cp *configProvider) GetYAML() ([]byte, error) {
	return yaml.Marshal(cp.config)
}

// clientWrapper wraps the internal client implementation to provide the public Client interface.
type clientWrapper struct {
	impl *client.ClientImpl
}

// NewClient creates a client and opens the database and every configured backend.
func NewClient(ctx context.Context, config *Config, opts ...Option) (Client, error) {
	return newClient(ctx, config, nil, opts)
}

// NewClientWithDatabase creates a client over a connection owned by the caller.
// dialect is "mysql", "postgresql" or "sqlite". Close does not close db.
func NewClientWithDatabase(ctx context.Context, config *Config, db *sql.DB, dialect string, opts ...Option) (Client, error) {
	if db == nil {
		return nil, fmt.Errorf("database cannot be nil")
	}
	d := core.Dialect(dialect)
	if !d.Valid() {
		return nil, fmt.Errorf("unsupported database dialect: %q", dialect)
	}
	return newClient(ctx, config, func(logger zerolog.Logger) core.Database {
		return database.NewSQLDatabase(db, d, logger)
	}, opts)
}

// NewClientFromEnv creates a client from the YAML or JSON file at path, when set,
// overlaid with ISO8583_STORE_* environment variables.
func NewClientFromEnv(ctx context.Context, path string, opts ...Option) (Client, error) {
	impl, err := client.NewClientImplFromEnv(ctx, path, buildDependencies(opts, nil))
	if err != nil {
		return nil, err
	}
	return &clientWrapper{impl: impl}, nil
}

func newClient(ctx context.Context, config *Config, openDB func(zerolog.Logger) core.Database, opts []Option) (Client, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	impl, err := client.NewClientImpl(ctx, &configProvider{config: config}, buildDependencies(opts, openDB))
	if err != nil {
		return nil, err
	}
	return &clientWrapper{impl: impl}, nil
}

func buildDependencies(opts []Option, openDB func(zerolog.Logger) core.Database) client.Dependencies {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	deps := client.Dependencies{
		Logger:     o.logger,
		Registerer: o.registerer,
		ExportSink: o.sink,
	}
	if openDB != nil {
		logger := zerolog.Nop()
		if o.logger != nil {
			logger = *o.logger
		}
		deps.Database = openDB(logger)
	}
	return deps
}

func (cw *clientWrapper) Mappers() MapperStore {
	return cw.impl.Store()
}

func (cw *clientWrapper) Export(ctx context.Context, id string) (string, error) {
	return cw.impl.Export(ctx, id)
}

func (cw *clientWrapper) Start(ctx context.Context) error {
	return cw.impl.Start(ctx)
}

func (cw *clientWrapper) Stop() error {
	return cw.impl.Stop()
}

func (cw *clientWrapper) IsRunning() bool {
	return cw.impl.IsRunning()
}

func (cw *clientWrapper) Stats() Stats {
	relay := cw.impl.Relay()
	if relay == nil {
		return Stats{}
	}
	return Stats{
		Running:   relay.IsRunning(),
		Queued:    relay.QueueSize(),
		Forwarded: relay.Forwarded(),
		Dropped:   relay.Dropped(),
	}
}

func (cw *clientWrapper) Close() error {
	return cw.impl.Close()
}
