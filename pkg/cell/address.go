package cell

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrInvalidReference indicates an address or range that cannot be parsed or
// that describes an impossible rectangle.
var ErrInvalidReference = errors.New("invalid cell reference")

// Address identifies a single cell by zero-based row and column.
type Address struct {
	Row int `json:"row" yaml:"row"`
	Col int `json:"col" yaml:"col"`
}

// ParseAddress parses an A1-style cell name such as "C7" or "$C$7".
func ParseAddress(name string) (Address, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(name), "$", "")

	col, row, err := excelize.CellNameToCoordinates(clean)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %q: %w", ErrInvalidReference, name, err)
	}

	return Address{Row: row - 1, Col: col - 1}, nil
}

// MustParseAddress is like [ParseAddress] but panics on error.
func MustParseAddress(name string) Address {
	a, err := ParseAddress(name)
	if err != nil {
		panic(err)
	}

	return a
}

// Valid reports whether both coordinates are non-negative.
func (a Address) Valid() bool {
	return a.Row >= 0 && a.Col >= 0
}

// String renders the address in A1 notation. Invalid addresses render as
// "R<row>C<col>".
func (a Address) String() string {
	if !a.Valid() {
		return fmt.Sprintf("R%dC%d", a.Row, a.Col)
	}

	name, err := excelize.CoordinatesToCellName(a.Col+1, a.Row+1)
	if err != nil {
		return fmt.Sprintf("R%dC%d", a.Row, a.Col)
	}

	return name
}

// Less orders addresses row-major.
func (a Address) Less(b Address) bool {
	if a.Row != b.Row {
		return a.Row < b.Row
	}

	return a.Col < b.Col
}
