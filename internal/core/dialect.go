package core

import (
	"strconv"
	"strings"
)

// Dialect identifies the SQL flavour of a Database.
type Dialect string

const (
	// DialectMySQL uses '?' placeholders.
	DialectMySQL Dialect = "mysql"

	// DialectPostgres uses '$n' placeholders.
	DialectPostgres Dialect = "postgresql"

	// DialectSQLite uses '?' placeholders.
	DialectSQLite Dialect = "sqlite"
)

// Valid reports whether d is a supported dialect.
func (d Dialect) Valid() bool {
	switch d {
	case DialectMySQL, DialectPostgres, DialectSQLite:
		return true
	}
	return false
}

// Rebind rewrites '?' placeholders into the dialect's native form.
// Statements in this module never carry '?' inside string literals.
func (d Dialect) Rebind(query string) string {
	if d != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}
