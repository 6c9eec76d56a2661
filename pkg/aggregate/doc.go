// Package aggregate computes the range statistics needed by statistical rule
// kinds: numeric populations, top/bottom rank, thresholds, percentiles and
// duplicate counts.
//
// Free functions ([CollectNumeric], [RankOf], [ThresholdFor],
// [PercentileOf]) operate on a raw population. [Stats] precomputes sorted
// orders once per rule and evaluation pass, and answers the same questions
// with the same semantics without re-sorting per cell.
//
// An empty numeric population never produces a rank, threshold or
// percentile; the boolean result is false and callers treat the rule as not
// applying.
package aggregate
