package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rzpsarthak13/iso8583-persistence/internal/core"
)

func TestSaveThenFindOneRoundTrip(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	m := iso87Mapper()
	require.NoError(t, s.Save(ctx, m))
	require.NotEmpty(t, m.ID)

	found, err := s.FindOne(ctx, m.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, m.ID, found.ID)
	assert.Equal(t, "ISO8583-1987", found.Name)
	assert.Equal(t, "ISO 8583:1987 financial messages", found.Description)

	require.Len(t, found.DataElements, 1)
	de := found.DataElements[2]
	require.NotNil(t, de)
	assert.NotEmpty(t, de.ID)
	assert.Equal(t, m.DataElements[2].ID, de.ID)
	assert.Equal(t, 2, *de.Number)
	assert.Equal(t, core.TypeNumeric, de.Type)
	assert.Equal(t, core.LengthLLVar, de.LengthType)
	assert.Equal(t, 19, *de.Length)
	assert.Equal(t, 2, *de.LengthPrefix)
	assert.Same(t, found, de.Mapper)
}

func TestSaveRoundTripManyElements(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	m := core.NewMapper("ISO8583-1993", "")
	m.Put(3, &core.DataElement{Type: core.TypeNumeric, LengthType: core.LengthFixed, Length: core.IntPtr(6)})
	m.Put(35, &core.DataElement{Type: core.TypeTrack2, LengthType: core.LengthLLVar, Length: core.IntPtr(37), LengthPrefix: core.IntPtr(2)})
	m.Put(52, &core.DataElement{Type: core.TypeBinary, LengthType: core.LengthFixed, Length: core.IntPtr(8)})
	m.Put(120, &core.DataElement{Type: core.TypeAlphaNumericSpecial, LengthType: core.LengthLLLVar, Length: core.IntPtr(999), LengthPrefix: core.IntPtr(3)})
	require.NoError(t, s.Save(ctx, m))

	found, err := s.FindOne(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, found.DataElements, len(m.DataElements))

	ids := map[string]struct{}{m.ID: {}}
	for n, want := range m.DataElements {
		got := found.DataElements[n]
		require.NotNil(t, got, "element %d", n)
		assert.Equal(t, n, *got.Number)
		assert.Equal(t, want.Type, got.Type)
		assert.Equal(t, want.LengthType, got.LengthType)
		assert.Equal(t, want.Length, got.Length)
		assert.Equal(t, want.LengthPrefix, got.LengthPrefix)
		_, dup := ids[got.ID]
		assert.False(t, dup, "identifier %s reused", got.ID)
		ids[got.ID] = struct{}{}
	}
	assert.Nil(t, found.DataElements[52].LengthPrefix)
}

func TestSaveAlwaysAssignsNewIdentifier(t *testing.T) {
	s, _, raw := newTestStore(t, WithIDGenerator(sequenceIDs()))
	ctx := context.Background()

	m := iso87Mapper()
	m.ID = "caller-chosen"
	require.NoError(t, s.Save(ctx, m))
	assert.Equal(t, "id-0001", m.ID)
	assert.Equal(t, "id-0002", m.DataElements[2].ID)

	// Saving the same object again inserts a second copy.
	require.NoError(t, s.Save(ctx, m))
	assert.Equal(t, "id-0003", m.ID)
	assert.Equal(t, 2, countRows(t, raw, core.MapperTable.Name))
	assert.Equal(t, 2, countRows(t, raw, core.DataElementTable.Name))

	first, err := s.FindOne(ctx, "id-0001")
	require.NoError(t, err)
	assert.Equal(t, "id-0002", first.DataElements[2].ID)
}

func TestSaveMapperWithoutElements(t *testing.T) {
	s, _, raw := newTestStore(t)
	ctx := context.Background()

	m := core.NewMapper("empty", "no fields yet")
	require.NoError(t, s.Save(ctx, m))
	assert.Equal(t, 0, countRows(t, raw, core.DataElementTable.Name))

	found, err := s.FindOne(ctx, m.ID)
	require.NoError(t, err)
	assert.Empty(t, found.DataElements)
	assert.NotNil(t, found.DataElements)
}

func TestSaveRollsBackWhenAChildInsertFails(t *testing.T) {
	s, spy, raw := newTestStore(t)
	ctx := context.Background()

	m := iso87Mapper()
	m.Put(4, &core.DataElement{Type: core.TypeNumeric, LengthType: core.LengthFixed, Length: core.IntPtr(12)})
	m.Put(11, &core.DataElement{Type: core.TypeNumeric, LengthType: core.LengthFixed, Length: core.IntPtr(6)})
	m.ID = "before"

	// mapper row, element 2, then element 4 fails
	spy.failExecAt = 3
	err := s.Save(ctx, m)
	require.Error(t, err)
	assert.ErrorIs(t, err, errInjected)
	assert.Contains(t, err.Error(), "data element 4")

	assert.Equal(t, "before", m.ID)
	assert.Equal(t, 1, spy.rollbacks)
	assert.Equal(t, 0, spy.commits)
	assert.Equal(t, 0, countRows(t, raw, core.MapperTable.Name))
	assert.Equal(t, 0, countRows(t, raw, core.DataElementTable.Name))
	for _, de := range m.DataElements {
		assert.Empty(t, de.ID)
	}
}

func TestSaveRollsBackWhenMapperInsertFails(t *testing.T) {
	s, spy, raw := newTestStore(t)
	spy.failExecAt = 1

	err := s.Save(context.Background(), iso87Mapper())
	assert.ErrorIs(t, err, errInjected)
	assert.Equal(t, 1, spy.rollbacks)
	assert.Equal(t, 0, countRows(t, raw, core.MapperTable.Name))
}

func TestSaveRejectsInvalidMapperWithoutTouchingStorage(t *testing.T) {
	s, spy, _ := newTestStore(t)
	ctx := context.Background()

	err := s.Save(ctx, core.NewMapper("", "unnamed"))
	assert.ErrorIs(t, err, core.ErrInvalidMapper)

	bad := core.NewMapper("bad", "")
	bad.DataElements[7] = &core.DataElement{Type: "DECIMAL", LengthType: core.LengthFixed}
	err = s.Save(ctx, bad)
	assert.ErrorIs(t, err, core.ErrInvalidMapper)
	assert.Empty(t, bad.ID)

	assert.Zero(t, spy.txExecs)
	assert.Zero(t, spy.commits)
}

func TestFindByNameMatchesFindOne(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	m := iso87Mapper()
	require.NoError(t, s.Save(ctx, m))

	byID, err := s.FindOne(ctx, m.ID)
	require.NoError(t, err)
	byName, err := s.FindByName(ctx, "ISO8583-1987")
	require.NoError(t, err)

	assert.Equal(t, byID.ID, byName.ID)
	assert.Equal(t, byID.Description, byName.Description)
	require.Len(t, byName.DataElements, 1)
	assert.Equal(t, byID.DataElements[2].ID, byName.DataElements[2].ID)
	assert.Equal(t, *byID.DataElements[2].Length, *byName.DataElements[2].Length)
}

func TestDuplicateNamesSaveButFailFindByName(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, iso87Mapper()))
	require.NoError(t, s.Save(ctx, iso87Mapper()))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	found, err := s.FindByName(ctx, "ISO8583-1987")
	assert.Nil(t, found)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrIncorrectResultSize)

	var sizeErr *core.IncorrectResultSizeError
	require.True(t, errors.As(err, &sizeErr))
	assert.Equal(t, 1, sizeErr.Expected)
	assert.Equal(t, 2, sizeErr.Actual)
}

func TestFindBlankKeysReturnNothingWithoutQuerying(t *testing.T) {
	s, spy, _ := newTestStore(t)
	ctx := context.Background()

	for _, key := range []string{"", "   ", "\t\n"} {
		m, err := s.FindOne(ctx, key)
		assert.NoError(t, err)
		assert.Nil(t, m)

		m, err = s.FindByName(ctx, key)
		assert.NoError(t, err)
		assert.Nil(t, m)
	}
	assert.Zero(t, spy.queries)
}

func TestFindMissingMapperIsResultSizeError(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.FindOne(ctx, "does-not-exist")
	require.ErrorIs(t, err, core.ErrIncorrectResultSize)
	var sizeErr *core.IncorrectResultSizeError
	require.True(t, errors.As(err, &sizeErr))
	assert.Equal(t, 0, sizeErr.Actual)

	_, err = s.FindByName(ctx, "nobody")
	assert.ErrorIs(t, err, core.ErrIncorrectResultSize)
}

func TestDeleteRemovesMapperAndChildren(t *testing.T) {
	s, _, raw := newTestStore(t)
	ctx := context.Background()

	keep := core.NewMapper("keep", "")
	keep.Put(7, &core.DataElement{Type: core.TypeNumeric, LengthType: core.LengthFixed, Length: core.IntPtr(10)})
	require.NoError(t, s.Save(ctx, keep))

	m := iso87Mapper()
	m.Put(39, &core.DataElement{Type: core.TypeAlphaNumeric, LengthType: core.LengthFixed, Length: core.IntPtr(2)})
	require.NoError(t, s.Save(ctx, m))

	before, err := s.Count(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, m))
	after, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, before-1, after)

	_, err = s.FindOne(ctx, m.ID)
	assert.ErrorIs(t, err, core.ErrIncorrectResultSize)
	assert.Equal(t, 1, countRows(t, raw, core.DataElementTable.Name))

	kept, err := s.FindOne(ctx, keep.ID)
	require.NoError(t, err)
	assert.Len(t, kept.DataElements, 1)
}

func TestDeleteUnknownMapperIsSilent(t *testing.T) {
	pub := &recordingPublisher{}
	s, _, _ := newTestStore(t, WithPublisher(pub))
	ctx := context.Background()

	require.NoError(t, s.Delete(ctx, &core.Mapper{ID: "ghost"}))
	assert.Empty(t, pub.events)

	err := s.Delete(ctx, nil)
	assert.ErrorIs(t, err, core.ErrInvalidMapper)
}

func TestDeleteRollsBackWhenMapperRowDeleteFails(t *testing.T) {
	s, spy, raw := newTestStore(t)
	ctx := context.Background()

	m := iso87Mapper()
	require.NoError(t, s.Save(ctx, m))
	spy.txExecs = 0
	spy.failExecAt = 2

	err := s.Delete(ctx, m)
	assert.ErrorIs(t, err, errInjected)
	assert.Equal(t, 1, countRows(t, raw, core.MapperTable.Name))
	assert.Equal(t, 1, countRows(t, raw, core.DataElementTable.Name))
}

func TestCount(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Save(ctx, core.NewMapper(fmt.Sprintf("m%d", i), "")))
	}
	n, err = s.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}

func TestFindAllPaginationDefaults(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		m := core.NewMapper(fmt.Sprintf("mapper-%02d", i), "")
		m.Put(2, &core.DataElement{Type: core.TypeNumeric, LengthType: core.LengthLLVar, Length: core.IntPtr(19), LengthPrefix: core.IntPtr(2)})
		require.NoError(t, s.Save(ctx, m))
	}

	ids := func(ms []*core.Mapper) []string {
		out := make([]string, len(ms))
		for i, m := range ms {
			out[i] = m.ID
		}
		return out
	}

	base, err := s.FindAll(ctx, core.IntPtr(0), core.IntPtr(20))
	require.NoError(t, err)
	assert.Len(t, base, 20)

	nilArgs, err := s.FindAll(ctx, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, ids(base), ids(nilArgs))

	negative, err := s.FindAll(ctx, core.IntPtr(-5), core.IntPtr(-5))
	require.NoError(t, err)
	assert.Equal(t, ids(base), ids(negative))

	mixed, err := s.FindAll(ctx, nil, core.IntPtr(3))
	require.NoError(t, err)
	assert.Equal(t, ids(base)[:3], ids(mixed))

	tail, err := s.FindAll(ctx, core.IntPtr(20), nil)
	require.NoError(t, err)
	assert.Len(t, tail, 5)
	assert.NotContains(t, ids(base), tail[0].ID)

	empty, err := s.FindAll(ctx, core.IntPtr(100), core.IntPtr(10))
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	for _, m := range base {
		assert.Empty(t, m.DataElements, "listing must not load data elements")
	}
}

func TestPageBounds(t *testing.T) {
	tests := []struct {
		name               string
		start, rows        *int
		wantStart, wantRow int
	}{
		{name: "nil both", wantStart: 0, wantRow: 20},
		{name: "negative both", start: core.IntPtr(-1), rows: core.IntPtr(-1), wantStart: 0, wantRow: 20},
		{name: "explicit", start: core.IntPtr(40), rows: core.IntPtr(10), wantStart: 40, wantRow: 10},
		{name: "zero rows kept", start: core.IntPtr(0), rows: core.IntPtr(0), wantStart: 0, wantRow: 0},
		{name: "nil start only", rows: core.IntPtr(5), wantStart: 0, wantRow: 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, r := pageBounds(tt.start, tt.rows)
			assert.Equal(t, tt.wantStart, s)
			assert.Equal(t, tt.wantRow, r)
		})
	}
}

func TestFindOneFailsOnUnknownStoredSymbol(t *testing.T) {
	s, _, raw := newTestStore(t)
	ctx := context.Background()

	m := iso87Mapper()
	require.NoError(t, s.Save(ctx, m))
	_, err := raw.DB().Exec("UPDATE iso8583_dataelement SET dataelement_type = 'DECIMAL' WHERE id_mapper = ?", m.ID)
	require.NoError(t, err)

	found, err := s.FindOne(ctx, m.ID)
	assert.Nil(t, found)
	assert.ErrorIs(t, err, core.ErrDecode)
	assert.ErrorIs(t, err, core.ErrUnknownSymbol)
}

func TestFindOneRejectsChildWithoutNumber(t *testing.T) {
	s, _, raw := newTestStore(t)
	ctx := context.Background()

	m := iso87Mapper()
	require.NoError(t, s.Save(ctx, m))
	_, err := raw.DB().Exec("UPDATE iso8583_dataelement SET dataelement_number = NULL WHERE id_mapper = ?", m.ID)
	require.NoError(t, err)

	_, err = s.FindOne(ctx, m.ID)
	assert.ErrorIs(t, err, core.ErrDecode)
}

func TestDuplicateElementNumbersLastRowWins(t *testing.T) {
	s, _, raw := newTestStore(t)
	ctx := context.Background()

	m := iso87Mapper()
	require.NoError(t, s.Save(ctx, m))
	_, err := raw.DB().Exec(
		"INSERT INTO iso8583_dataelement (id, id_mapper, dataelement_number, dataelement_type, dataelement_length_type, dataelement_length, dataelement_length_prefix) VALUES (?, ?, ?, ?, ?, ?, ?)",
		"later-row", m.ID, 2, "ALPHA_NUMERIC", "FIXED", 4, nil)
	require.NoError(t, err)

	found, err := s.FindOne(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, found.DataElements, 1)
	assert.Equal(t, "later-row", found.DataElements[2].ID)
	assert.Equal(t, core.TypeAlphaNumeric, found.DataElements[2].Type)
}

func TestPublisherReceivesCommittedChanges(t *testing.T) {
	pub := &recordingPublisher{}
	fixed := time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)
	s, _, _ := newTestStore(t, WithPublisher(pub), WithClock(func() time.Time { return fixed }))
	ctx := context.Background()

	m := iso87Mapper()
	require.NoError(t, s.Save(ctx, m))
	require.NoError(t, s.Delete(ctx, m))

	require.Len(t, pub.events, 2)
	saved, deleted := pub.events[0], pub.events[1]
	assert.Equal(t, core.EventMapperSaved, saved.Type)
	assert.Equal(t, m.ID, saved.MapperID)
	assert.Equal(t, "ISO8583-1987", saved.Name)
	assert.Equal(t, 1, saved.Elements)
	assert.Equal(t, fixed, saved.Timestamp)
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, core.EventMapperDeleted, deleted.Type)
	assert.NotEqual(t, saved.ID, deleted.ID)
}

func TestPublishFailureDoesNotFailSave(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	s, _, _ := newTestStore(t, WithPublisher(pub))
	ctx := context.Background()

	m := iso87Mapper()
	require.NoError(t, s.Save(ctx, m))
	found, err := s.FindOne(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, m.ID, found.ID)
}

func TestFailedSaveDoesNotPublish(t *testing.T) {
	pub := &recordingPublisher{}
	s, spy, _ := newTestStore(t, WithPublisher(pub))
	spy.failExecAt = 2

	require.Error(t, s.Save(context.Background(), iso87Mapper()))
	assert.Empty(t, pub.events)
}

func TestMetricsObserveEveryOperation(t *testing.T) {
	rec := &recordingMetrics{}
	s, _, _ := newTestStore(t, WithMetrics(rec))
	ctx := context.Background()

	m := iso87Mapper()
	require.NoError(t, s.Save(ctx, m))
	_, _ = s.FindOne(ctx, m.ID)
	_, _ = s.FindByName(ctx, "missing")
	_, _ = s.Count(ctx)
	_, _ = s.FindAll(ctx, nil, nil)
	require.NoError(t, s.Delete(ctx, m))

	assert.Equal(t, []string{"save", "find_one", "find_by_name:error", "count", "find_all", "delete"}, rec.ops)
}

func TestCanceledContextPropagates(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Save(ctx, iso87Mapper())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
