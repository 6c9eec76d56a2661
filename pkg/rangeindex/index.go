// Package rangeindex answers "which rules cover this address" for the rule
// engine.
//
// Rules are kept in a slice sorted by priority, each with its ranges and a
// bounding box. Lookups scan the slice and test the bounding box before the
// individual ranges, so a query costs one comparison for every rule whose box
// misses the address.
package rangeindex

import (
	"slices"

	"github.com/macropower/condfmt/pkg/cell"
)

type entry struct {
	id       string
	ranges   []cell.Range
	bounds   cell.Range
	priority int
	empty    bool
}

// Index maps rule ids to the ranges they cover.
type Index struct {
	byID    map[string]*entry
	ordered []*entry
}

// New creates an empty [Index].
func New() *Index {
	return &Index{byID: map[string]*entry{}}
}

// Add indexes ranges under ruleID with the given priority. Lower priorities
// sort first. Re-adding an existing id replaces its ranges and priority.
// Overlapping ranges are kept as given.
func (ix *Index) Add(ruleID string, priority int, ranges []cell.Range) {
	ix.Remove(ruleID)

	e := &entry{
		id:       ruleID,
		priority: priority,
		ranges:   slices.Clone(ranges),
	}

	var ok bool
	e.bounds, ok = cell.Bounds(ranges)
	e.empty = !ok

	ix.byID[ruleID] = e

	pos, _ := slices.BinarySearchFunc(ix.ordered, e, compareEntries)
	ix.ordered = slices.Insert(ix.ordered, pos, e)
}

// Remove drops ruleID from the index. Unknown ids are ignored.
func (ix *Index) Remove(ruleID string) {
	e, ok := ix.byID[ruleID]
	if !ok {
		return
	}

	delete(ix.byID, ruleID)

	ix.ordered = slices.DeleteFunc(ix.ordered, func(o *entry) bool {
		return o == e
	})
}

// Reprioritize changes the priority of ruleID, keeping its ranges. It
// returns false for unknown ids.
func (ix *Index) Reprioritize(ruleID string, priority int) bool {
	e, ok := ix.byID[ruleID]
	if !ok {
		return false
	}

	ix.Add(ruleID, priority, e.ranges)

	return true
}

// RulesContaining returns the ids whose ranges contain a, in priority order.
func (ix *Index) RulesContaining(a cell.Address) []string {
	var ids []string

	for _, e := range ix.ordered {
		if e.empty || !e.bounds.Contains(a) {
			continue
		}

		for _, r := range e.ranges {
			if r.Contains(a) {
				ids = append(ids, e.id)
				break
			}
		}
	}

	return ids
}

// RulesIntersecting returns the ids with at least one range intersecting r,
// in priority order.
func (ix *Index) RulesIntersecting(r cell.Range) []string {
	var ids []string

	for _, e := range ix.ordered {
		if e.empty || !e.bounds.Intersects(r) {
			continue
		}

		for _, rr := range e.ranges {
			if rr.Intersects(r) {
				ids = append(ids, e.id)
				break
			}
		}
	}

	return ids
}

// Ranges returns a copy of the ranges indexed for ruleID.
func (ix *Index) Ranges(ruleID string) ([]cell.Range, bool) {
	e, ok := ix.byID[ruleID]
	if !ok {
		return nil, false
	}

	return slices.Clone(e.ranges), true
}

// Len returns the number of indexed rules.
func (ix *Index) Len() int {
	return len(ix.ordered)
}

func compareEntries(a, b *entry) int {
	if a.priority != b.priority {
		return a.priority - b.priority
	}
	switch {
	case a.id < b.id:
		return -1
	case a.id > b.id:
		return 1
	}

	return 0
}
