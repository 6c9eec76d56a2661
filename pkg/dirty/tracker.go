// Package dirty records which cells have been invalidated since the last
// evaluation pass.
package dirty

import (
	"github.com/macropower/condfmt/pkg/cell"
)

// Tracker is a set of pending dirty addresses. Marking an address more than
// once before a [Tracker.Drain] has no further effect.
type Tracker struct {
	pending map[cell.Address]struct{}
}

// New creates an empty [Tracker].
func New() *Tracker {
	return &Tracker{pending: map[cell.Address]struct{}{}}
}

// Mark adds a to the pending set.
func (t *Tracker) Mark(a cell.Address) {
	t.pending[a] = struct{}{}
}

// MarkRange adds every address of r to the pending set.
func (t *Tracker) MarkRange(r cell.Range) {
	r.Each(func(a cell.Address) bool {
		t.pending[a] = struct{}{}
		return true
	})
}

// IsDirty reports whether a is pending.
func (t *Tracker) IsDirty(a cell.Address) bool {
	_, ok := t.pending[a]
	return ok
}

// Clear removes a from the pending set.
func (t *Tracker) Clear(a cell.Address) {
	delete(t.pending, a)
}

// Len returns the number of pending addresses.
func (t *Tracker) Len() int {
	return len(t.pending)
}

// Drain returns the pending set and resets the tracker.
func (t *Tracker) Drain() map[cell.Address]struct{} {
	out := t.pending
	t.pending = make(map[cell.Address]struct{}, len(out))

	return out
}
