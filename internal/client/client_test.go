package client

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rzpsarthak13/iso8583-persistence/internal/core"
	"github.com/rzpsarthak13/iso8583-persistence/internal/database/dbtest"
	"github.com/rzpsarthak13/iso8583-persistence/internal/events"
	"github.com/rzpsarthak13/iso8583-persistence/internal/export"
)

type yamlProvider struct {
	data []byte
	err  error
}

func (p yamlProvider) GetYAML() ([]byte, error) {
	return p.data, p.err
}

func nopDeps(t *testing.T) Dependencies {
	logger := zerolog.Nop()
	return Dependencies{Logger: &logger, Database: dbtest.NewSQLite(t)}
}

func TestNewClientImplRejectsMissingConfig(t *testing.T) {
	_, err := NewClientImpl(context.Background(), nil, Dependencies{})
	assert.Error(t, err)

	_, err = NewClientImpl(context.Background(), yamlProvider{err: errors.New("boom")}, Dependencies{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	_, err = NewClientImpl(context.Background(), yamlProvider{data: []byte("events: [")}, Dependencies{})
	assert.Error(t, err)
}

func TestNewClientImplWiresPublisherIntoStore(t *testing.T) {
	ctx := context.Background()
	c, err := NewClientImpl(ctx, yamlProvider{data: []byte("events:\n  type: memory\n")}, nopDeps(t))
	require.NoError(t, err)
	defer c.Close()

	queue, ok := c.Publisher().(*events.MemoryQueue)
	require.True(t, ok)
	assert.Nil(t, c.Relay())

	m := core.NewMapper("mc-auth", "")
	m.Put(3, &core.DataElement{Type: core.TypeNumeric, LengthType: core.LengthFixed, Length: core.IntPtr(6)})
	require.NoError(t, c.Store().Save(ctx, m))

	batch, err := queue.Dequeue(ctx, 10)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, core.EventMapperSaved, batch[0].Type)
	assert.Equal(t, m.ID, batch[0].MapperID)
}

func TestMemoryEventsWithoutRelayWarns(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	deps := Dependencies{Logger: &logger, Database: dbtest.NewSQLite(t)}

	c, err := NewClientImpl(context.Background(), yamlProvider{data: []byte("events:\n  type: memory\n  memory_buffer: 2\n")}, deps)
	require.NoError(t, err)
	defer c.Close()

	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), "memory events without relay are only drained by explicit dequeue")
	assert.Contains(t, buf.String(), `"memory_buffer":2`)
}

func TestMemoryEventsWithRelayDoesNotWarn(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	deps := Dependencies{Logger: &logger, Database: dbtest.NewSQLite(t)}

	yaml := "events:\n  type: memory\nrelay:\n  enabled: true\n  target:\n    type: kafka\n    kafka_config:\n      brokers: [\"localhost:9092\"]\n      topic: mapper-events\n"
	c, err := NewClientImpl(context.Background(), yamlProvider{data: []byte(yaml)}, deps)
	require.NoError(t, err)
	defer c.Close()

	assert.NotNil(t, c.Relay())
	assert.NotContains(t, buf.String(), "only drained by explicit dequeue")
}

func TestExportUsesSuppliedSink(t *testing.T) {
	ctx := context.Background()
	deps := nopDeps(t)
	sink := export.NewMemorySink()
	deps.ExportSink = sink

	c, err := NewClientImpl(ctx, yamlProvider{}, deps)
	require.NoError(t, err)
	defer c.Close()

	m := core.NewMapper("amex", "")
	require.NoError(t, c.Store().Save(ctx, m))

	key, err := c.Export(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{key}, sink.Keys())

	_, err = c.Export(ctx, "  ")
	assert.Error(t, err)
}

func TestCloseReleasesPublisher(t *testing.T) {
	ctx := context.Background()
	c, err := NewClientImpl(ctx, yamlProvider{data: []byte("events:\n  type: memory\n")}, nopDeps(t))
	require.NoError(t, err)

	require.NoError(t, c.Close())
	err = c.Publisher().Publish(ctx, &core.MapperEvent{Type: core.EventMapperSaved, MapperID: "x"})
	assert.ErrorIs(t, err, events.ErrQueueClosed)
	assert.ErrorIs(t, c.Start(ctx), ErrClientClosed)
}

func TestNewClientImplFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.yaml")
	require.NoError(t, os.WriteFile(path, []byte("events:\n  type: memory\n"), 0o600))
	t.Setenv("ISO8583_STORE_EVENTS_MEMORY_BUFFER", "5")

	c, err := NewClientImplFromEnv(context.Background(), path, nopDeps(t))
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, events.TypeMemory, c.Config().Events.Type)
	assert.Equal(t, 5, c.Config().Events.MemoryBuffer)

	_, err = NewClientImplFromEnv(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"), nopDeps(t))
	assert.Error(t, err)
}
