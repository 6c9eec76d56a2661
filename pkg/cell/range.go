package cell

import (
	"fmt"
	"strings"
)

// Range is an inclusive rectangle of addresses. A normalized range has
// Start.Row <= End.Row and Start.Col <= End.Col.
type Range struct {
	Start Address `json:"start" yaml:"start"`
	End   Address `json:"end"   yaml:"end"`
}

// NewRange returns the normalized range spanning both corners.
func NewRange(a, b Address) Range {
	return Range{
		Start: Address{Row: min(a.Row, b.Row), Col: min(a.Col, b.Col)},
		End:   Address{Row: max(a.Row, b.Row), Col: max(a.Col, b.Col)},
	}
}

// SingleCell returns the one-cell range at a.
func SingleCell(a Address) Range {
	return Range{Start: a, End: a}
}

// ParseRange parses an A1-style range ("A1:E10") or a single cell ("B2").
// Corners may be given in either order; the result is normalized.
func ParseRange(ref string) (Range, error) {
	first, second, found := strings.Cut(strings.TrimSpace(ref), ":")

	start, err := ParseAddress(first)
	if err != nil {
		return Range{}, err
	}
	if !found {
		return SingleCell(start), nil
	}

	end, err := ParseAddress(second)
	if err != nil {
		return Range{}, err
	}

	return NewRange(start, end), nil
}

// MustParseRange is like [ParseRange] but panics on error.
func MustParseRange(ref string) Range {
	r, err := ParseRange(ref)
	if err != nil {
		panic(err)
	}

	return r
}

// Validate reports an error when the range has negative coordinates or is
// inverted on either axis.
func (r Range) Validate() error {
	if !r.Start.Valid() || !r.End.Valid() {
		return fmt.Errorf("%w: %s has negative coordinates", ErrInvalidReference, r)
	}
	if r.Start.Row > r.End.Row || r.Start.Col > r.End.Col {
		return fmt.Errorf("%w: %s is inverted", ErrInvalidReference, r)
	}

	return nil
}

// Contains reports whether a lies inside r.
func (r Range) Contains(a Address) bool {
	return a.Row >= r.Start.Row && a.Row <= r.End.Row &&
		a.Col >= r.Start.Col && a.Col <= r.End.Col
}

// Intersects reports whether r and o share at least one address.
func (r Range) Intersects(o Range) bool {
	return r.Start.Row <= o.End.Row && o.Start.Row <= r.End.Row &&
		r.Start.Col <= o.End.Col && o.Start.Col <= r.End.Col
}

// Union returns the smallest range containing both r and o.
func (r Range) Union(o Range) Range {
	return Range{
		Start: Address{Row: min(r.Start.Row, o.Start.Row), Col: min(r.Start.Col, o.Start.Col)},
		End:   Address{Row: max(r.End.Row, o.End.Row), Col: max(r.End.Col, o.End.Col)},
	}
}

// Rows returns the number of rows covered.
func (r Range) Rows() int { return r.End.Row - r.Start.Row + 1 }

// Cols returns the number of columns covered.
func (r Range) Cols() int { return r.End.Col - r.Start.Col + 1 }

// Size returns the number of addresses covered.
func (r Range) Size() int { return r.Rows() * r.Cols() }

// Each calls fn for every address in row-major order until fn returns false.
func (r Range) Each(fn func(Address) bool) {
	for row := r.Start.Row; row <= r.End.Row; row++ {
		for col := r.Start.Col; col <= r.End.Col; col++ {
			if !fn(Address{Row: row, Col: col}) {
				return
			}
		}
	}
}

// Addresses returns every address of r in row-major order.
func (r Range) Addresses() []Address {
	out := make([]Address, 0, r.Size())
	r.Each(func(a Address) bool {
		out = append(out, a)
		return true
	})

	return out
}

// String renders the range in A1 notation ("A1:E1", or "B2" for one cell).
func (r Range) String() string {
	if r.Start == r.End {
		return r.Start.String()
	}

	return r.Start.String() + ":" + r.End.String()
}

// Bounds returns the smallest range covering every range in rs, and false
// when rs is empty.
func Bounds(rs []Range) (Range, bool) {
	if len(rs) == 0 {
		return Range{}, false
	}

	b := rs[0]
	for _, r := range rs[1:] {
		b = b.Union(r)
	}

	return b, true
}
