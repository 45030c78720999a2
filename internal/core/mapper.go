package core

import (
	"fmt"
)

// DataElementType is the kind of value a data element carries.
type DataElementType string

const (
	TypeNumeric             DataElementType = "NUMERIC"
	TypeAlpha               DataElementType = "ALPHA"
	TypeNumericSpecial      DataElementType = "NUMERIC_SPECIAL"
	TypeAlphaNumeric        DataElementType = "ALPHA_NUMERIC"
	TypeAlphaSpecial        DataElementType = "ALPHA_SPECIAL"
	TypeAlphaNumericSpecial DataElementType = "ALPHA_NUMERIC_SPECIAL"
	TypeBinary              DataElementType = "BINARY"
	TypeTrack2              DataElementType = "TRACK2"
)

var dataElementTypes = map[string]DataElementType{
	string(TypeNumeric):             TypeNumeric,
	string(TypeAlpha):               TypeAlpha,
	string(TypeNumericSpecial):      TypeNumericSpecial,
	string(TypeAlphaNumeric):        TypeAlphaNumeric,
	string(TypeAlphaSpecial):        TypeAlphaSpecial,
	string(TypeAlphaNumericSpecial): TypeAlphaNumericSpecial,
	string(TypeBinary):              TypeBinary,
	string(TypeTrack2):              TypeTrack2,
}

// ParseDataElementType resolves a stored symbol. Matching is exact and case-sensitive.
func ParseDataElementType(s string) (DataElementType, error) {
	t, ok := dataElementTypes[s]
	if !ok {
		return "", fmt.Errorf("%w: data element type %q", ErrUnknownSymbol, s)
	}
	return t, nil
}

// Valid reports whether t is a member of the enumeration.
func (t DataElementType) Valid() bool {
	_, ok := dataElementTypes[string(t)]
	return ok
}

// DataElementLength is the length-encoding strategy of a data element.
type DataElementLength string

const (
	// LengthFixed means the value always occupies Length characters.
	LengthFixed DataElementLength = "FIXED"

	// LengthLLVar prefixes the value with a two digit length.
	LengthLLVar DataElementLength = "LLVAR"

	// LengthLLLVar prefixes the value with a three digit length.
	LengthLLLVar DataElementLength = "LLLVAR"
)

var dataElementLengths = map[string]DataElementLength{
	string(LengthFixed):  LengthFixed,
	string(LengthLLVar):  LengthLLVar,
	string(LengthLLLVar): LengthLLLVar,
}

// ParseDataElementLength resolves a stored symbol. Matching is exact and case-sensitive.
func ParseDataElementLength(s string) (DataElementLength, error) {
	l, ok := dataElementLengths[s]
	if !ok {
		return "", fmt.Errorf("%w: data element length type %q", ErrUnknownSymbol, s)
	}
	return l, nil
}

// Valid reports whether l is a member of the enumeration.
func (l DataElementLength) Valid() bool {
	_, ok := dataElementLengths[string(l)]
	return ok
}

// Mapper is a named message-format schema: a set of data elements keyed by number.
type Mapper struct {
	ID           string
	Name         string
	Description  string
	DataElements map[int]*DataElement
}

// NewMapper returns a mapper with an initialized element map.
func NewMapper(name, description string) *Mapper {
	return &Mapper{
		Name:         name,
		Description:  description,
		DataElements: make(map[int]*DataElement),
	}
}

// Put registers de under number, setting its Number and back-reference.
func (m *Mapper) Put(number int, de *DataElement) {
	if m.DataElements == nil {
		m.DataElements = make(map[int]*DataElement)
	}
	n := number
	de.Number = &n
	de.Mapper = m
	m.DataElements[number] = de
}

// DataElement is one field specification of a Mapper.
type DataElement struct {
	ID string

	// Number is nil only when decoded from a row whose number column is NULL.
	Number *int

	Type       DataElementType
	LengthType DataElementLength

	// Length is the fixed size, or the maximum size for variable encodings.
	Length *int

	// LengthPrefix is the width of the length indicator; meaningless for LengthFixed.
	LengthPrefix *int

	// Mapper points back at the owning mapper. It is not serialized.
	Mapper *Mapper `json:"-"`
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}
