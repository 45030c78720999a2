package iso8583store

import (
	"github.com/rzpsarthak13/iso8583-persistence/internal/client"
	"github.com/rzpsarthak13/iso8583-persistence/internal/core"
)

// Mapper is a named message format: a set of data elements keyed by element number.
type Mapper = core.Mapper

// DataElement is the specification of one numbered field of a Mapper.
type DataElement = core.DataElement

// DataElementType is the character class of a data element's content.
type DataElementType = core.DataElementType

// DataElementLength is how a data element's length is encoded.
type DataElementLength = core.DataElementLength

// MapperEvent is published after a mapper is saved or deleted.
type MapperEvent = core.MapperEvent

// IncorrectResultSizeError reports a single-result lookup that matched zero or many rows.
type IncorrectResultSizeError = core.IncorrectResultSizeError

const (
	TypeNumeric             = core.TypeNumeric
	TypeAlpha               = core.TypeAlpha
	TypeNumericSpecial      = core.TypeNumericSpecial
	TypeAlphaNumeric        = core.TypeAlphaNumeric
	TypeAlphaSpecial        = core.TypeAlphaSpecial
	TypeAlphaNumericSpecial = core.TypeAlphaNumericSpecial
	TypeBinary              = core.TypeBinary
	TypeTrack2              = core.TypeTrack2

	LengthFixed  = core.LengthFixed
	LengthLLVar  = core.LengthLLVar
	LengthLLLVar = core.LengthLLLVar
)

var (
	ErrIncorrectResultSize = core.ErrIncorrectResultSize
	ErrDecode              = core.ErrDecode
	ErrUnknownSymbol       = core.ErrUnknownSymbol
	ErrInvalidMapper       = core.ErrInvalidMapper
	ErrClientClosed        = client.ErrClientClosed
	ErrExportDisabled      = client.ErrExportDisabled
	ErrRelayDisabled       = client.ErrRelayDisabled
)

// NewMapper returns an empty mapper ready for Put.
func NewMapper(name, description string) *Mapper {
	return core.NewMapper(name, description)
}

// IntPtr returns a pointer to v, for the optional DataElement fields.
func IntPtr(v int) *int {
	return core.IntPtr(v)
}
