package workbook

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/macropower/condfmt/pkg/cell"
)

// ErrOutOfBounds indicates a lookup at an invalid address.
var ErrOutOfBounds = errors.New("address out of bounds")

// Grid is a sparse snapshot of worksheet values. Cells that were never set
// read as [cell.Null].
type Grid struct {
	cells map[cell.Address]cell.Value

	// Sheet is the worksheet the values were read from.
	Sheet string
}

// NewGrid builds a [Grid] from row-major values. Null values are not
// stored.
func NewGrid(sheet string, rows [][]cell.Value) *Grid {
	g := &Grid{Sheet: sheet, cells: map[cell.Address]cell.Value{}}

	for r, row := range rows {
		for c, v := range row {
			if !v.IsNull() {
				g.cells[cell.Address{Row: r, Col: c}] = v
			}
		}
	}

	return g
}

// Value implements [cell.Accessor].
func (g *Grid) Value(a cell.Address) (cell.Value, error) {
	if !a.Valid() {
		return cell.Value{}, fmt.Errorf("%w: %s", ErrOutOfBounds, a)
	}

	return g.cells[a], nil
}

// Len returns the number of non-blank cells.
func (g *Grid) Len() int {
	return len(g.cells)
}

// Bounds returns the smallest range holding every non-blank cell.
func (g *Grid) Bounds() (cell.Range, bool) {
	if len(g.cells) == 0 {
		return cell.Range{}, false
	}

	var r cell.Range

	first := true
	for a := range g.cells {
		if first {
			r = cell.SingleCell(a)
			first = false

			continue
		}

		r = r.Union(cell.SingleCell(a))
	}

	return r, true
}

// Addresses returns the non-blank addresses in row-major order.
func (g *Grid) Addresses() []cell.Address {
	return slices.SortedFunc(maps.Keys(g.cells), compareAddresses)
}

// Diff returns, in row-major order, every address whose value differs
// between old and updated. Either grid may be nil.
func Diff(old, updated *Grid) []cell.Address {
	changed := map[cell.Address]struct{}{}

	var oldCells, newCells map[cell.Address]cell.Value
	if old != nil {
		oldCells = old.cells
	}
	if updated != nil {
		newCells = updated.cells
	}

	for a, v := range oldCells {
		if nv, ok := newCells[a]; !ok || nv != v {
			changed[a] = struct{}{}
		}
	}
	for a := range newCells {
		if _, ok := oldCells[a]; !ok {
			changed[a] = struct{}{}
		}
	}

	return slices.SortedFunc(maps.Keys(changed), compareAddresses)
}

func compareAddresses(a, b cell.Address) int {
	switch {
	case a.Less(b):
		return -1
	case b.Less(a):
		return 1
	}

	return 0
}
