// Package resolve computes the ordered list of rules that apply to a cell.
//
// A [Resolver] walks candidate rules in priority order, evaluates each rule's
// condition against the cell value and, for range-aware kinds, against
// statistics of the rule's ranges. Statistics are memoized per rule in
// [Aggregates] for the duration of one evaluation pass.
package resolve
