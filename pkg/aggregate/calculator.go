package aggregate

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/macropower/condfmt/pkg/cell"
)

// Mode selects the sort direction of a top/bottom computation.
type Mode string

const (
	Top    Mode = "top"
	Bottom Mode = "bottom"
)

// ErrInvalidLimit indicates a [Limit] without a positive count or a percent
// in (0, 100].
var ErrInvalidLimit = errors.New("invalid limit")

// Rank is the 1-based position of a value within a sorted population.
type Rank struct {
	Position int `json:"position" yaml:"position"`
	Total    int `json:"total"    yaml:"total"`
}

// Limit is either a fixed Count or a Percent of the population. Exactly one
// of the two is set.
type Limit struct {
	Count   int     `json:"count,omitempty"   yaml:"count,omitempty"`
	Percent float64 `json:"percent,omitempty" yaml:"percent,omitempty"`
}

// Validate checks that exactly one of Count and Percent is set and in range.
func (l Limit) Validate() error {
	switch {
	case l.Count != 0 && l.Percent != 0:
		return fmt.Errorf("%w: count and percent are mutually exclusive", ErrInvalidLimit)
	case l.Count < 0:
		return fmt.Errorf("%w: count %d is negative", ErrInvalidLimit, l.Count)
	case l.Count > 0:
		return nil
	case l.Percent <= 0 || l.Percent > 100 || math.IsNaN(l.Percent):
		return fmt.Errorf("%w: percent %g is outside (0, 100]", ErrInvalidLimit, l.Percent)
	}

	return nil
}

// position returns the 1-based sorted position selected by l within a
// population of total values, clamped to [1, total].
func (l Limit) position(total int) int {
	n := l.Count
	if n == 0 {
		n = int(math.Ceil(l.Percent * float64(total) / 100))
	}

	return max(1, min(n, total))
}

func (l Limit) String() string {
	if l.Count > 0 {
		return fmt.Sprintf("%d", l.Count)
	}

	return fmt.Sprintf("%g%%", l.Percent)
}

// CollectNumeric returns every Number value in ranges, in range, row, column
// scan order. Text, blank, boolean and error values are skipped, as are NaN
// numbers. Accessor errors are returned unchanged.
func CollectNumeric(ranges []cell.Range, acc cell.Accessor) ([]float64, error) {
	var (
		out []float64
		err error
	)

	for _, r := range ranges {
		r.Each(func(a cell.Address) bool {
			var v cell.Value

			v, err = acc.Value(a)
			if err != nil {
				err = fmt.Errorf("read %s: %w", a, err)
				return false
			}
			if f, ok := v.Float(); ok && !math.IsNaN(f) {
				out = append(out, f)
			}

			return true
		})
		if err != nil {
			return nil, err
		}
	}

	return out, nil
}

// RankOf sorts population (descending for [Top], ascending for [Bottom]) and
// returns the position of the first entry equal to v. Ties therefore share
// the lowest matching position. It returns false when v is not a number, is
// not in the population, or the population is empty.
func RankOf(v cell.Value, population []float64, mode Mode) (Rank, bool) {
	f, ok := v.Float()
	if !ok || len(population) == 0 {
		return Rank{}, false
	}

	sorted := sortedCopy(population, mode)

	i := slices.Index(sorted, f)
	if i < 0 {
		return Rank{}, false
	}

	return Rank{Position: i + 1, Total: len(sorted)}, true
}

// ThresholdFor returns the boundary value of a top/bottom selection: the
// value at the position chosen by limit in the population sorted by mode.
// Limits larger than the population select its last (most extreme inward)
// value.
func ThresholdFor(population []float64, mode Mode, limit Limit) (float64, bool) {
	if len(population) == 0 {
		return 0, false
	}

	sorted := sortedCopy(population, mode)

	return sorted[limit.position(len(sorted))-1], true
}

// PercentileOf returns the share of the population less than or equal to
// value, as a percentage rounded half up to the nearest integer.
func PercentileOf(value float64, population []float64) (int, bool) {
	if len(population) == 0 {
		return 0, false
	}

	n := 0
	for _, p := range population {
		if p <= value {
			n++
		}
	}

	return roundHalfUp(float64(n) * 100 / float64(len(population))), true
}

// roundHalfUp rounds x to the nearest integer, with halves rounded toward
// positive infinity.
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

func sortedCopy(population []float64, mode Mode) []float64 {
	sorted := slices.Clone(population)
	slices.Sort(sorted)
	if mode == Top {
		slices.Reverse(sorted)
	}

	return sorted
}
