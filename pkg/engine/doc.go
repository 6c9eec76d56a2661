// Package engine provides the conditional formatting evaluation engine.
//
// An [Engine] owns the registered rules of one worksheet, a spatial index
// over their ranges, a set of dirty cells and a per-cell result cache. It
// never stores cell values: every evaluation reads values through the
// [cell.Accessor] passed to that call, and no reference to the accessor is
// retained afterwards.
//
// Cached results are reused while the rule set is unchanged (tracked by a
// revision counter), the cell has not been marked dirty, and no cell in the
// ranges of a range-aware rule covering the cell has been marked dirty
// (tracked by per-rule data epochs).
//
// An Engine is not safe for concurrent use.
package engine
