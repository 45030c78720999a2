package store

import (
	"github.com/rzpsarthak13/iso8583-persistence/internal/core"
)

var (
	mapperColumns      = core.MapperTable.ColumnList()
	dataElementColumns = core.DataElementTable.ColumnList()

	insertMapperSQL = "INSERT INTO " + core.MapperTable.Name + " (" + mapperColumns + ") VALUES (" + core.MapperTable.Placeholders() + ")"
	countMapperSQL  = "SELECT COUNT(*) FROM " + core.MapperTable.Name
	// ORDER BY keeps pages stable across calls.
	findAllMapperSQL    = "SELECT " + mapperColumns + " FROM " + core.MapperTable.Name + " ORDER BY id LIMIT ? OFFSET ?"
	findMapperByIDSQL   = "SELECT " + mapperColumns + " FROM " + core.MapperTable.Name + " WHERE id = ?"
	findMapperByNameSQL = "SELECT " + mapperColumns + " FROM " + core.MapperTable.Name + " WHERE name = ?"
	deleteMapperSQL     = "DELETE FROM " + core.MapperTable.Name + " WHERE id = ?"

	insertDataElementSQL = "INSERT INTO " + core.DataElementTable.Name + " (" + dataElementColumns + ") VALUES (" + core.DataElementTable.Placeholders() + ")"
	findDataElementsSQL  = "SELECT " + dataElementColumns + " FROM " + core.DataElementTable.Name + " WHERE id_mapper = ?"
	deleteDataElementSQL = "DELETE FROM " + core.DataElementTable.Name + " WHERE id_mapper = ?"
)

const (
	defaultPageStart = 0
	defaultPageRows  = 20
)

// pageBounds applies the listing defaults. Each argument is checked for nil
// before it is dereferenced.
func pageBounds(start, rows *int) (int, int) {
	s := defaultPageStart
	if start != nil && *start >= 0 {
		s = *start
	}
	r := defaultPageRows
	if rows != nil && *rows >= 0 {
		r = *rows
	}
	return s, r
}
