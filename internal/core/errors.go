package core

import (
	"errors"
	"fmt"
)

var (
	// ErrIncorrectResultSize is returned when a lookup expecting exactly one row finds zero or several.
	ErrIncorrectResultSize = errors.New("incorrect result size")

	// ErrDecode is returned when a stored row cannot be turned back into an entity.
	ErrDecode = errors.New("decode failure")

	// ErrUnknownSymbol is returned when stored text matches no enumeration member.
	ErrUnknownSymbol = errors.New("unknown enumeration symbol")

	// ErrInvalidMapper is returned when a mapper is missing required fields.
	ErrInvalidMapper = errors.New("invalid mapper")

	// ErrDatabaseClosed is returned by a Database after Close.
	ErrDatabaseClosed = errors.New("database is closed")
)

// IncorrectResultSizeError records how many rows a single-row lookup actually found.
type IncorrectResultSizeError struct {
	Expected int
	Actual   int
}

func (e *IncorrectResultSizeError) Error() string {
	return fmt.Sprintf("%s: expected %d, actual %d", ErrIncorrectResultSize, e.Expected, e.Actual)
}

// Unwrap lets errors.Is match ErrIncorrectResultSize.
func (e *IncorrectResultSizeError) Unwrap() error {
	return ErrIncorrectResultSize
}
