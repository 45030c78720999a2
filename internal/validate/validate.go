// Package validate checks that a mapper carries the fields the store needs
// before anything is written. It does not check ISO 8583 semantics.
package validate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rzpsarthak13/iso8583-persistence/internal/core"
)

// Mapper validates a mapper before Save.
func Mapper(m *core.Mapper) error {
	if m == nil {
		return fmt.Errorf("%w: mapper cannot be nil", core.ErrInvalidMapper)
	}
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("%w: name is required", core.ErrInvalidMapper)
	}

	numbers := make([]int, 0, len(m.DataElements))
	for n := range m.DataElements {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	for _, n := range numbers {
		if err := DataElement(n, m.DataElements[n]); err != nil {
			return err
		}
	}
	return nil
}

// DataElement validates one entry of a mapper's element map.
func DataElement(number int, de *core.DataElement) error {
	if number <= 0 {
		return fmt.Errorf("%w: data element number must be positive, got %d", core.ErrInvalidMapper, number)
	}
	if de == nil {
		return fmt.Errorf("%w: data element %d cannot be nil", core.ErrInvalidMapper, number)
	}
	if !de.Type.Valid() {
		return fmt.Errorf("%w: data element %d has invalid type %q", core.ErrInvalidMapper, number, de.Type)
	}
	if !de.LengthType.Valid() {
		return fmt.Errorf("%w: data element %d has invalid length type %q", core.ErrInvalidMapper, number, de.LengthType)
	}
	return nil
}
