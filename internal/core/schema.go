package core

import (
	"strings"
)

// Table describes one of the relations the store reads and writes.
type Table struct {
	// Name is the table name.
	Name string

	// PrimaryKey is the name of the primary key column.
	PrimaryKey string

	// Columns lists the columns in the order the codecs scan and bind them.
	Columns []Column
}

// Column represents a single column in a table.
type Column struct {
	// Name is the column name.
	Name string

	// Type is the portable database type (e.g., "VARCHAR(255)", "INT").
	Type string

	// Nullable indicates whether the column can contain NULL values.
	Nullable bool
}

// ColumnList returns the comma separated column names, suitable for SELECT and INSERT.
func (t Table) ColumnList() string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return strings.Join(names, ", ")
}

// Placeholders returns one '?' per column.
func (t Table) Placeholders() string {
	return strings.TrimSuffix(strings.Repeat("?, ", len(t.Columns)), ", ")
}

// MapperTable is the iso8583_mapper relation.
var MapperTable = Table{
	Name:       "iso8583_mapper",
	PrimaryKey: "id",
	Columns: []Column{
		{Name: "id", Type: "VARCHAR(36)"},
		{Name: "name", Type: "VARCHAR(255)"},
		{Name: "description", Type: "VARCHAR(255)", Nullable: true},
	},
}

// DataElementTable is the iso8583_dataelement relation. id_mapper references iso8583_mapper.id.
var DataElementTable = Table{
	Name:       "iso8583_dataelement",
	PrimaryKey: "id",
	Columns: []Column{
		{Name: "id", Type: "VARCHAR(36)"},
		{Name: "id_mapper", Type: "VARCHAR(36)"},
		{Name: "dataelement_number", Type: "INT", Nullable: true},
		{Name: "dataelement_type", Type: "VARCHAR(255)"},
		{Name: "dataelement_length_type", Type: "VARCHAR(255)"},
		{Name: "dataelement_length", Type: "INT", Nullable: true},
		{Name: "dataelement_length_prefix", Type: "INT", Nullable: true},
	},
}
