package aggregate

import (
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/macropower/condfmt/pkg/cell"
)

// Stats holds the statistics of one rule's ranges, computed in a single scan.
type Stats struct {
	counts map[string]int

	// Numeric is the numeric population in scan order.
	Numeric []float64

	asc []float64

	// Min and Max are the population extremes; both are zero when the
	// population is empty.
	Min float64
	Max float64
}

// Compute scans ranges once, collecting the numeric population and the
// duplicate key counts of all non-blank, non-error values.
func Compute(ranges []cell.Range, acc cell.Accessor) (*Stats, error) {
	s := &Stats{counts: map[string]int{}}

	var err error

	for _, r := range ranges {
		r.Each(func(a cell.Address) bool {
			var v cell.Value

			v, err = acc.Value(a)
			if err != nil {
				err = fmt.Errorf("read %s: %w", a, err)
				return false
			}

			if k, ok := v.Key(); ok {
				s.counts[k]++
			}
			if f, ok := v.Float(); ok && !math.IsNaN(f) {
				s.Numeric = append(s.Numeric, f)
			}

			return true
		})
		if err != nil {
			return nil, err
		}
	}

	s.asc = slices.Clone(s.Numeric)
	slices.Sort(s.asc)

	if len(s.asc) > 0 {
		s.Min = s.asc[0]
		s.Max = s.asc[len(s.asc)-1]
	}

	return s, nil
}

// Len returns the size of the numeric population.
func (s *Stats) Len() int {
	return len(s.asc)
}

// Rank is the [Stats] equivalent of [RankOf].
func (s *Stats) Rank(v float64, mode Mode) (Rank, bool) {
	n := len(s.asc)
	if n == 0 || math.IsNaN(v) {
		return Rank{}, false
	}

	var pos int

	switch mode {
	case Top:
		// First index in descending order holding v is the number of values
		// strictly greater than v.
		upper := sort.Search(n, func(i int) bool { return s.asc[i] > v })
		if upper == 0 || s.asc[upper-1] != v {
			return Rank{}, false
		}

		pos = n - upper
	default:
		lower := sort.SearchFloat64s(s.asc, v)
		if lower == n || s.asc[lower] != v {
			return Rank{}, false
		}

		pos = lower
	}

	return Rank{Position: pos + 1, Total: n}, true
}

// Threshold is the [Stats] equivalent of [ThresholdFor].
func (s *Stats) Threshold(mode Mode, limit Limit) (float64, bool) {
	n := len(s.asc)
	if n == 0 {
		return 0, false
	}

	p := limit.position(n)
	if mode == Top {
		return s.asc[n-p], true
	}

	return s.asc[p-1], true
}

// Percentile is the [Stats] equivalent of [PercentileOf].
func (s *Stats) Percentile(v float64) (int, bool) {
	n := len(s.asc)
	if n == 0 {
		return 0, false
	}

	atOrBelow := sort.Search(n, func(i int) bool { return s.asc[i] > v })

	return roundHalfUp(float64(atOrBelow) * 100 / float64(n)), true
}

// ValueAtPercent returns the value p percent of the way from Min to Max.
func (s *Stats) ValueAtPercent(p float64) float64 {
	return s.Min + (s.Max-s.Min)*p/100
}

// ValueAtPercentile returns the p-th percentile of the population using
// linear interpolation between closest ranks (inclusive definition).
func (s *Stats) ValueAtPercentile(p float64) float64 {
	n := len(s.asc)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return s.asc[0]
	}

	p = max(0, min(p, 100))
	h := p / 100 * float64(n-1)
	lo := int(math.Floor(h))
	hi := min(lo+1, n-1)

	return s.asc[lo] + (h-float64(lo))*(s.asc[hi]-s.asc[lo])
}

// Occurrences returns how many values in the ranges share v's duplicate key.
// Blank and error values report zero.
func (s *Stats) Occurrences(v cell.Value) int {
	k, ok := v.Key()
	if !ok {
		return 0
	}

	return s.counts[k]
}
