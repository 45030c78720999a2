package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rzpsarthak13/iso8583-persistence/internal/core"
	"github.com/rzpsarthak13/iso8583-persistence/internal/database"
	"github.com/rzpsarthak13/iso8583-persistence/internal/database/dbtest"
	"github.com/rzpsarthak13/iso8583-persistence/internal/idgen"
)

var errInjected = errors.New("injected failure")

// spyDB counts calls and can fail the n-th statement executed inside a transaction.
type spyDB struct {
	core.Database
	mu         sync.Mutex
	queries    int
	txExecs    int
	failExecAt int
	rollbacks  int
	commits    int
}

func (d *spyDB) Query(ctx context.Context, query string, args ...interface{}) (core.Rows, error) {
	d.mu.Lock()
	d.queries++
	d.mu.Unlock()
	return d.Database.Query(ctx, query, args...)
}

func (d *spyDB) BeginTx(ctx context.Context) (core.Transaction, error) {
	tx, err := d.Database.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	return &spyTx{Transaction: tx, db: d}, nil
}

type spyTx struct {
	core.Transaction
	db *spyDB
}

func (t *spyTx) Exec(ctx context.Context, query string, args ...interface{}) (core.Result, error) {
	t.db.mu.Lock()
	t.db.txExecs++
	fail := t.db.failExecAt > 0 && t.db.txExecs == t.db.failExecAt
	t.db.mu.Unlock()
	if fail {
		return nil, errInjected
	}
	return t.Transaction.Exec(ctx, query, args...)
}

func (t *spyTx) Commit() error {
	t.db.mu.Lock()
	t.db.commits++
	t.db.mu.Unlock()
	return t.Transaction.Commit()
}

func (t *spyTx) Rollback() error {
	t.db.mu.Lock()
	t.db.rollbacks++
	t.db.mu.Unlock()
	return t.Transaction.Rollback()
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []*core.MapperEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event *core.MapperEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

// recordingMetrics keeps operation names and whether they failed.
type recordingMetrics struct {
	mu  sync.Mutex
	ops []string
}

func (r *recordingMetrics) Observe(op string, _ time.Time, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		op += ":error"
	}
	r.ops = append(r.ops, op)
}

func sequenceIDs() idgen.Generator {
	var mu sync.Mutex
	n := 0
	return idgen.FuncGenerator(func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%04d", n)
	})
}

func newTestStore(t *testing.T, opts ...Option) (*MapperStore, *spyDB, *database.SQLDatabase) {
	t.Helper()
	raw := dbtest.NewSQLite(t)
	spy := &spyDB{Database: raw}
	return NewMapperStore(spy, opts...), spy, raw
}

func iso87Mapper() *core.Mapper {
	m := core.NewMapper("ISO8583-1987", "ISO 8583:1987 financial messages")
	m.Put(2, &core.DataElement{
		Type:         core.TypeNumeric,
		LengthType:   core.LengthLLVar,
		Length:       core.IntPtr(19),
		LengthPrefix: core.IntPtr(2),
	})
	return m
}

func countRows(t *testing.T, db *database.SQLDatabase, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.DB().QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}
