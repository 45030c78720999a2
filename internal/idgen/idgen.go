// Package idgen produces opaque identifiers for new mapper and data element rows.
package idgen

import (
	"github.com/google/uuid"
)

// Generator returns a new unique identifier on every call.
type Generator interface {
	NewID() string
}

// UUIDGenerator issues random (version 4) UUIDs in their canonical 36 character form.
type UUIDGenerator struct{}

// NewID returns a fresh random UUID string.
func (UUIDGenerator) NewID() string {
	return uuid.NewString()
}

// FuncGenerator adapts a plain function to Generator.
type FuncGenerator func() string

// NewID calls f.
func (f FuncGenerator) NewID() string {
	return f()
}

// Default is the generator used when none is configured.
var Default Generator = UUIDGenerator{}
