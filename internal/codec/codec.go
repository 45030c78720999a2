// Package codec maps rows of the mapper tables to entities and back.
// Every field is copied explicitly; column order follows core.MapperTable
// and core.DataElementTable.
package codec

import (
	"database/sql"
	"fmt"

	"github.com/rzpsarthak13/iso8583-persistence/internal/core"
)

// ScanMapper decodes a row selected with core.MapperTable.ColumnList().
func ScanMapper(row core.Row) (*core.Mapper, error) {
	var (
		id, name    string
		description sql.NullString
	)
	if err := row.Scan(&id, &name, &description); err != nil {
		return nil, fmt.Errorf("failed to scan mapper: %w", err)
	}
	m := core.NewMapper(name, description.String)
	m.ID = id
	return m, nil
}

// MapperParams returns the insert arguments for m in core.MapperTable column order.
func MapperParams(m *core.Mapper) []interface{} {
	return []interface{}{m.ID, m.Name, m.Description}
}

// ScanDataElement decodes a row selected with core.DataElementTable.ColumnList().
// The returned element has no back-reference; the caller attaches it.
// An unknown or NULL type or length-type symbol fails with core.ErrDecode.
func ScanDataElement(row core.Row) (*core.DataElement, error) {
	var (
		id, mapperID             string
		number, length, prefix   sql.NullInt64
		typeSymbol, lengthSymbol sql.NullString
	)
	if err := row.Scan(&id, &mapperID, &number, &typeSymbol, &lengthSymbol, &length, &prefix); err != nil {
		return nil, fmt.Errorf("failed to scan data element: %w", err)
	}

	// NULL reads as the empty symbol, which no enumeration accepts.
	deType, err := core.ParseDataElementType(typeSymbol.String)
	if err != nil {
		return nil, fmt.Errorf("%w: data element %s: %w", core.ErrDecode, id, err)
	}
	lengthType, err := core.ParseDataElementLength(lengthSymbol.String)
	if err != nil {
		return nil, fmt.Errorf("%w: data element %s: %w", core.ErrDecode, id, err)
	}

	return &core.DataElement{
		ID:           id,
		Number:       nullableInt(number),
		Type:         deType,
		LengthType:   lengthType,
		Length:       nullableInt(length),
		LengthPrefix: nullableInt(prefix),
	}, nil
}

// DataElementParams returns the insert arguments for de in core.DataElementTable column order.
// number is the element's key in the owning mapper and takes precedence over de.Number.
func DataElementParams(id, mapperID string, number int, de *core.DataElement) []interface{} {
	return []interface{}{
		id,
		mapperID,
		number,
		string(de.Type),
		string(de.LengthType),
		nullInt(de.Length),
		nullInt(de.LengthPrefix),
	}
}

func nullableInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
