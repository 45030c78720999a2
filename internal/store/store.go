// Package store persists mappers and their data elements in the
// iso8583_mapper and iso8583_dataelement tables.
package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/rzpsarthak13/iso8583-persistence/internal/codec"
	"github.com/rzpsarthak13/iso8583-persistence/internal/core"
	"github.com/rzpsarthak13/iso8583-persistence/internal/idgen"
	"github.com/rzpsarthak13/iso8583-persistence/internal/metrics"
	"github.com/rzpsarthak13/iso8583-persistence/internal/validate"
)

// MapperStore saves, finds, lists and deletes mappers.
// Mappers are insert-only: Save always creates new rows.
type MapperStore struct {
	db        core.Database
	ids       idgen.Generator
	logger    zerolog.Logger
	metrics   metrics.Recorder
	publisher core.EventPublisher
	now       func() time.Time
}

// NewMapperStore creates a store over db.
func NewMapperStore(db core.Database, opts ...Option) *MapperStore {
	s := &MapperStore{
		db:      db,
		ids:     idgen.Default,
		logger:  zerolog.Nop(),
		metrics: metrics.NopRecorder{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save assigns m a fresh identifier, replacing any it already had, and inserts
// the mapper row plus one row per data element in a single transaction.
// On success every element carries its new ID, its Number and a back-reference to m.
// On failure nothing is written and m.ID is restored.
func (s *MapperStore) Save(ctx context.Context, m *core.Mapper) (err error) {
	start := time.Now()
	defer func() { s.metrics.Observe("save", start, err) }()

	if err := validate.Mapper(m); err != nil {
		return err
	}

	previousID := m.ID
	m.ID = s.ids.NewID()

	numbers := sortedNumbers(m.DataElements)
	childIDs := make(map[int]string, len(numbers))

	err = s.inTransaction(ctx, func(tx core.Transaction) error {
		if _, err := tx.Exec(ctx, insertMapperSQL, codec.MapperParams(m)...); err != nil {
			return fmt.Errorf("failed to insert mapper %q: %w", m.Name, err)
		}
		for _, n := range numbers {
			id := s.ids.NewID()
			if _, err := tx.Exec(ctx, insertDataElementSQL, codec.DataElementParams(id, m.ID, n, m.DataElements[n])...); err != nil {
				return fmt.Errorf("failed to insert data element %d of mapper %q: %w", n, m.Name, err)
			}
			childIDs[n] = id
		}
		return nil
	})
	if err != nil {
		m.ID = previousID
		s.logger.Error().Err(err).Str("name", m.Name).Msg("save rolled back")
		return err
	}

	for n, id := range childIDs {
		de := m.DataElements[n]
		de.ID = id
		de.Number = core.IntPtr(n)
		de.Mapper = m
	}

	s.logger.Info().Str("mapper_id", m.ID).Str("name", m.Name).Int("elements", len(numbers)).Msg("mapper saved")
	s.publish(ctx, core.EventMapperSaved, m, len(numbers))
	return nil
}

// Delete removes the data element rows of m and then the mapper row.
// Deleting a mapper that is not stored is not an error.
func (s *MapperStore) Delete(ctx context.Context, m *core.Mapper) (err error) {
	start := time.Now()
	defer func() { s.metrics.Observe("delete", start, err) }()

	if m == nil {
		return fmt.Errorf("%w: mapper cannot be nil", core.ErrInvalidMapper)
	}

	var removed int64 = -1
	err = s.inTransaction(ctx, func(tx core.Transaction) error {
		if _, err := tx.Exec(ctx, deleteDataElementSQL, m.ID); err != nil {
			return fmt.Errorf("failed to delete data elements of mapper %s: %w", m.ID, err)
		}
		res, err := tx.Exec(ctx, deleteMapperSQL, m.ID)
		if err != nil {
			return fmt.Errorf("failed to delete mapper %s: %w", m.ID, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			removed = n
		}
		return nil
	})
	if err != nil {
		return err
	}

	if removed == 0 {
		s.logger.Debug().Str("mapper_id", m.ID).Msg("delete matched no mapper")
		return nil
	}
	s.logger.Info().Str("mapper_id", m.ID).Msg("mapper deleted")
	s.publish(ctx, core.EventMapperDeleted, m, 0)
	return nil
}

// FindOne returns the mapper with the given id and all of its data elements.
// A blank id returns (nil, nil) without querying. Zero or several matching rows
// fail with core.ErrIncorrectResultSize.
func (s *MapperStore) FindOne(ctx context.Context, id string) (m *core.Mapper, err error) {
	if strings.TrimSpace(id) == "" {
		return nil, nil
	}
	start := time.Now()
	defer func() { s.metrics.Observe("find_one", start, err) }()

	m, err = s.findSingle(ctx, findMapperByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find mapper by id %q: %w", id, err)
	}
	return m, nil
}

// FindByName is FindOne keyed on name. Names are not unique, so two mappers
// sharing a name make this fail with core.ErrIncorrectResultSize.
func (s *MapperStore) FindByName(ctx context.Context, name string) (m *core.Mapper, err error) {
	if strings.TrimSpace(name) == "" {
		return nil, nil
	}
	start := time.Now()
	defer func() { s.metrics.Observe("find_by_name", start, err) }()

	m, err = s.findSingle(ctx, findMapperByNameSQL, name)
	if err != nil {
		return nil, fmt.Errorf("failed to find mapper by name %q: %w", name, err)
	}
	return m, nil
}

// Count returns the number of stored mappers.
func (s *MapperStore) Count(ctx context.Context) (n int64, err error) {
	start := time.Now()
	defer func() { s.metrics.Observe("count", start, err) }()

	rows, err := s.db.Query(ctx, countMapperSQL)
	if err != nil {
		return 0, fmt.Errorf("failed to count mappers: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return 0, fmt.Errorf("failed to count mappers: %w", err)
		}
		return 0, fmt.Errorf("failed to count mappers: %w", &core.IncorrectResultSizeError{Expected: 1, Actual: 0})
	}
	if err := rows.Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to scan mapper count: %w", err)
	}
	return n, rows.Err()
}

// FindAll lists one page of mappers ordered by id. A nil or negative start
// means 0 and a nil or negative rows means 20. Data elements are not loaded.
func (s *MapperStore) FindAll(ctx context.Context, start, rows *int) (mappers []*core.Mapper, err error) {
	began := time.Now()
	defer func() { s.metrics.Observe("find_all", began, err) }()

	offset, limit := pageBounds(start, rows)
	mappers, err = s.queryMappers(ctx, findAllMapperSQL, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list mappers: %w", err)
	}
	return mappers, nil
}

func (s *MapperStore) findSingle(ctx context.Context, query string, arg string) (*core.Mapper, error) {
	found, err := s.queryMappers(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	if len(found) != 1 {
		return nil, &core.IncorrectResultSizeError{Expected: 1, Actual: len(found)}
	}
	m := found[0]
	if err := s.loadDataElements(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// queryMappers reads every matching mapper row and closes the cursor before returning.
func (s *MapperStore) queryMappers(ctx context.Context, query string, args ...interface{}) ([]*core.Mapper, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	mappers := make([]*core.Mapper, 0)
	for rows.Next() {
		m, err := codec.ScanMapper(rows)
		if err != nil {
			return nil, err
		}
		mappers = append(mappers, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating mappers: %w", err)
	}
	return mappers, nil
}

// loadDataElements attaches every child row of m, keyed by number.
// When two rows share a number the later row wins.
func (s *MapperStore) loadDataElements(ctx context.Context, m *core.Mapper) error {
	rows, err := s.db.Query(ctx, findDataElementsSQL, m.ID)
	if err != nil {
		return fmt.Errorf("failed to load data elements: %w", err)
	}
	defer rows.Close()

	elements := make(map[int]*core.DataElement)
	for rows.Next() {
		de, err := codec.ScanDataElement(rows)
		if err != nil {
			return err
		}
		if de.Number == nil {
			return fmt.Errorf("%w: data element %s of mapper %s has no number", core.ErrDecode, de.ID, m.ID)
		}
		if prev, dup := elements[*de.Number]; dup {
			s.logger.Warn().
				Str("mapper_id", m.ID).
				Int("number", *de.Number).
				Str("replaced_id", prev.ID).
				Str("kept_id", de.ID).
				Msg("duplicate data element number")
		}
		de.Mapper = m
		elements[*de.Number] = de
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating data elements: %w", err)
	}
	m.DataElements = elements
	return nil
}

// inTransaction runs fn in one transaction and rolls back unless fn and Commit both succeed.
func (s *MapperStore) inTransaction(ctx context.Context, fn func(core.Transaction) error) error {
	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Warn().Err(rbErr).Msg("rollback failed")
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true
	return nil
}

// publish never fails the caller: the rows are already committed.
func (s *MapperStore) publish(ctx context.Context, eventType core.EventType, m *core.Mapper, elements int) {
	if s.publisher == nil {
		return
	}
	event := &core.MapperEvent{
		ID:        s.ids.NewID(),
		Type:      eventType,
		MapperID:  m.ID,
		Name:      m.Name,
		Elements:  elements,
		Timestamp: s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error().Err(err).Str("mapper_id", m.ID).Str("event", string(eventType)).Msg("failed to publish mapper event")
	}
}

func sortedNumbers(elements map[int]*core.DataElement) []int {
	numbers := make([]int, 0, len(elements))
	for n := range elements {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)
	return numbers
}
