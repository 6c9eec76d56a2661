package resolve

import (
	"math"
	"strings"

	"github.com/macropower/condfmt/pkg/aggregate"
	"github.com/macropower/condfmt/pkg/cell"
	"github.com/macropower/condfmt/pkg/rule"
)

func compare(c rule.ValueComparison, v cell.Value) bool {
	switch {
	case c.Operator.Numeric():
		return compareNumber(c, v)
	case c.Operator.Textual():
		return compareText(c, v)
	}

	if len(c.Operands) == 0 || v.Kind() == cell.KindError {
		return false
	}

	switch c.Operator {
	case rule.OpEqual:
		return v.Equal(c.Operands[0])
	case rule.OpNotEqual:
		return !v.Equal(c.Operands[0])
	}

	return false
}

func compareNumber(c rule.ValueComparison, v cell.Value) bool {
	f, ok := v.Float()
	if !ok || math.IsNaN(f) {
		return false
	}

	ops := make([]float64, 0, len(c.Operands))
	for _, o := range c.Operands {
		of, ok := o.Float()
		if !ok {
			return false
		}

		ops = append(ops, of)
	}

	if len(ops) != c.Operator.Arity() {
		return false
	}

	switch c.Operator {
	case rule.OpBetween:
		return f >= min(ops[0], ops[1]) && f <= max(ops[0], ops[1])
	case rule.OpNotBetween:
		return f < min(ops[0], ops[1]) || f > max(ops[0], ops[1])
	case rule.OpGreaterThan:
		return f > ops[0]
	case rule.OpLessThan:
		return f < ops[0]
	case rule.OpGreaterThanOrEqual:
		return f >= ops[0]
	case rule.OpLessThanOrEqual:
		return f <= ops[0]
	}

	return false
}

func compareText(c rule.ValueComparison, v cell.Value) bool {
	s, ok := v.Str()
	if !ok || v.Kind() != cell.KindText || len(c.Operands) != 1 {
		return false
	}

	needle, ok := c.Operands[0].Str()
	if !ok {
		return false
	}

	s = strings.ToLower(s)
	needle = strings.ToLower(needle)

	switch c.Operator {
	case rule.OpContainsText:
		return strings.Contains(s, needle)
	case rule.OpNotContainsText:
		return !strings.Contains(s, needle)
	case rule.OpBeginsWith:
		return strings.HasPrefix(s, needle)
	case rule.OpEndsWith:
		return strings.HasSuffix(s, needle)
	}

	return false
}

func numeric(v cell.Value, st *aggregate.Stats) (float64, bool) {
	f, ok := v.Float()
	if !ok || math.IsNaN(f) || st.Len() == 0 {
		return 0, false
	}

	return f, true
}

func topBottom(c rule.TopBottom, v cell.Value, st *aggregate.Stats, m *Match) bool {
	f, ok := numeric(v, st)
	if !ok {
		return false
	}

	threshold, ok := st.Threshold(c.Mode, c.Limit())
	if !ok {
		return false
	}

	switch c.Mode {
	case aggregate.Top:
		if f < threshold {
			return false
		}
	case aggregate.Bottom:
		if f > threshold {
			return false
		}
	}

	rank, ok := st.Rank(f, c.Mode)
	if !ok {
		return false
	}

	m.Rank = &Rank{Position: rank.Position, Total: rank.Total, Threshold: threshold}
	if p, ok := st.Percentile(f); ok {
		m.Percentile = &p
	}

	return true
}

func duplicate(c rule.Duplicate, v cell.Value, st *aggregate.Stats, m *Match) bool {
	n := st.Occurrences(v)
	if n == 0 {
		return false
	}

	if c.Unique != (n == 1) {
		return false
	}

	m.Extra = DuplicateExtra{Occurrences: n}

	return true
}

func colorScale(c rule.ColorScale, v cell.Value, st *aggregate.Stats, m *Match) bool {
	f, ok := numeric(v, st)
	if !ok {
		return false
	}

	stops := make([]float64, len(c.Stops))
	for i, s := range c.Stops {
		stops[i] = s.Resolve(st)
	}

	segments := len(stops) - 1
	seg, frac := 0, 0.0

	switch {
	case f <= stops[0]:
		frac = 0
	case f >= stops[segments]:
		seg, frac = segments-1, 1
	default:
		for seg < segments-1 && f > stops[seg+1] {
			seg++
		}

		lo, hi := stops[seg], stops[seg+1]

		local := 0.0
		if hi > lo {
			local = (f - lo) / (hi - lo)
		}

		frac = (float64(seg) + local) / float64(segments)
	}

	m.Extra = ScaleExtra{Fraction: max(0, min(frac, 1)), Segment: seg}
	if p, ok := st.Percentile(f); ok {
		m.Percentile = &p
	}

	return true
}

func iconSet(c rule.IconSet, v cell.Value, st *aggregate.Stats, m *Match) bool {
	f, ok := numeric(v, st)
	if !ok {
		return false
	}

	idx := 0
	for _, t := range c.Thresholds {
		if f >= t.Resolve(st) {
			idx++
		}
	}

	if c.Reverse {
		idx = c.Icons - 1 - idx
	}

	m.Extra = IconExtra{Index: idx}

	return true
}
