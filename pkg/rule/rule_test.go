package rule_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/condfmt/pkg/aggregate"
	"github.com/macropower/condfmt/pkg/cell"
	"github.com/macropower/condfmt/pkg/rule"
)

func TestRuleValidate(t *testing.T) {
	t.Parallel()

	a1e1 := []cell.Range{cell.MustParseRange("A1:E1")}

	tcs := map[string]struct {
		rule rule.Rule
		err  error
	}{
		"valid top": {
			rule: rule.Rule{
				Ranges:    a1e1,
				Condition: rule.TopBottom{Mode: aggregate.Top, Count: 2},
			},
		},
		"empty ranges are valid": {
			rule: rule.Rule{Condition: rule.Duplicate{}},
		},
		"missing condition": {
			rule: rule.Rule{Ranges: a1e1},
			err:  rule.ErrInvalidKind,
		},
		"inverted range": {
			rule: rule.Rule{
				Ranges:    []cell.Range{{Start: cell.Address{Row: 3}, End: cell.Address{Row: 1}}},
				Condition: rule.Duplicate{},
			},
			err: rule.ErrInvalidRange,
		},
		"negative range": {
			rule: rule.Rule{
				Ranges:    []cell.Range{{Start: cell.Address{Row: -1}, End: cell.Address{Row: 1}}},
				Condition: rule.Duplicate{},
			},
			err: rule.ErrInvalidRange,
		},
		"count and percent": {
			rule: rule.Rule{
				Ranges:    a1e1,
				Condition: rule.TopBottom{Mode: aggregate.Top, Count: 2, Percent: 10},
			},
			err: rule.ErrInvalidParameter,
		},
		"unknown mode": {
			rule: rule.Rule{
				Ranges:    a1e1,
				Condition: rule.TopBottom{Mode: "middle", Count: 2},
			},
			err: rule.ErrInvalidParameter,
		},
		"between needs two operands": {
			rule: rule.Rule{
				Ranges: a1e1,
				Condition: rule.ValueComparison{
					Operator: rule.OpBetween,
					Operands: []cell.Value{cell.Number(1)},
				},
			},
			err: rule.ErrInvalidParameter,
		},
		"numeric operator with text operand": {
			rule: rule.Rule{
				Ranges: a1e1,
				Condition: rule.ValueComparison{
					Operator: rule.OpGreaterThan,
					Operands: []cell.Value{cell.Text("x")},
				},
			},
			err: rule.ErrInvalidParameter,
		},
		"text operator with number operand": {
			rule: rule.Rule{
				Ranges: a1e1,
				Condition: rule.ValueComparison{
					Operator: rule.OpContainsText,
					Operands: []cell.Value{cell.Number(1)},
				},
			},
			err: rule.ErrInvalidParameter,
		},
		"unknown operator": {
			rule: rule.Rule{
				Ranges: a1e1,
				Condition: rule.ValueComparison{
					Operator: "approximately",
					Operands: []cell.Value{cell.Number(1)},
				},
			},
			err: rule.ErrInvalidParameter,
		},
		"color scale with one stop": {
			rule: rule.Rule{
				Ranges:    a1e1,
				Condition: rule.ColorScale{Stops: []rule.Stop{{Type: rule.StopMin}}},
			},
			err: rule.ErrInvalidParameter,
		},
		"color scale percentile out of range": {
			rule: rule.Rule{
				Ranges: a1e1,
				Condition: rule.ColorScale{Stops: []rule.Stop{
					{Type: rule.StopMin},
					{Type: rule.StopPercentile, Value: 150},
				}},
			},
			err: rule.ErrInvalidParameter,
		},
		"icon set threshold count": {
			rule: rule.Rule{
				Ranges: a1e1,
				Condition: rule.IconSet{Icons: 3, Thresholds: []rule.Stop{
					{Type: rule.StopPercent, Value: 33},
				}},
			},
			err: rule.ErrInvalidParameter,
		},
		"icon set descending thresholds": {
			rule: rule.Rule{
				Ranges: a1e1,
				Condition: rule.IconSet{Icons: 3, Thresholds: []rule.Stop{
					{Type: rule.StopPercent, Value: 67},
					{Type: rule.StopPercent, Value: 33},
				}},
			},
			err: rule.ErrInvalidParameter,
		},
		"icon set min stop": {
			rule: rule.Rule{
				Ranges: a1e1,
				Condition: rule.IconSet{Icons: 3, Thresholds: []rule.Stop{
					{Type: rule.StopMin},
					{Type: rule.StopPercent, Value: 67},
				}},
			},
			err: rule.ErrInvalidParameter,
		},
		"uncompiled expression": {
			rule: rule.Rule{
				Ranges:    a1e1,
				Condition: rule.Expression{Expr: "row == 0"},
			},
			err: rule.ErrInvalidParameter,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			err := tc.rule.Validate()
			if tc.err != nil {
				require.ErrorIs(t, err, tc.err)
				return
			}

			require.NoError(t, err)
		})
	}
}

func TestFinalize(t *testing.T) {
	t.Parallel()

	t.Run("compiles expressions", func(t *testing.T) {
		t.Parallel()

		r := rule.Rule{
			Ranges:    []cell.Range{cell.MustParseRange("A1:A3")},
			Condition: rule.Expression{Expr: "row == 0"},
		}

		got, err := r.Finalize()
		require.NoError(t, err)

		e, ok := got.Condition.(rule.Expression)
		require.True(t, ok)
		require.NotNil(t, e.Program())

		// The original is untouched.
		orig, ok := r.Condition.(rule.Expression)
		require.True(t, ok)
		assert.Nil(t, orig.Program())
	})

	t.Run("rejects malformed expressions", func(t *testing.T) {
		t.Parallel()

		r := rule.Rule{Condition: rule.Expression{Expr: "row =="}}

		_, err := r.Finalize()
		require.ErrorIs(t, err, rule.ErrInvalidParameter)
	})

	t.Run("does not alias slices", func(t *testing.T) {
		t.Parallel()

		ranges := []cell.Range{cell.MustParseRange("A1:A3")}
		operands := []cell.Value{cell.Number(1), cell.Number(2)}
		r := rule.Rule{
			Ranges: ranges,
			Condition: rule.ValueComparison{
				Operator: rule.OpBetween,
				Operands: operands,
			},
		}

		got, err := r.Finalize()
		require.NoError(t, err)

		ranges[0] = cell.MustParseRange("Z1:Z2")
		operands[0] = cell.Number(100)

		assert.Equal(t, cell.MustParseRange("A1:A3"), got.Ranges[0])

		vc, ok := got.Condition.(rule.ValueComparison)
		require.True(t, ok)
		assert.Equal(t, cell.Number(1), vc.Operands[0])
	})
}

func TestPatch(t *testing.T) {
	t.Parallel()

	base := rule.Rule{
		ID:        "r1",
		Priority:  3,
		Ranges:    []cell.Range{cell.MustParseRange("A1:A3")},
		Condition: rule.Duplicate{},
	}

	stop := true
	moved := []cell.Range{cell.MustParseRange("B1:B3")}

	t.Run("nil fields are unchanged", func(t *testing.T) {
		t.Parallel()

		p := rule.Patch{}
		got := p.Apply(base)
		assert.Equal(t, base, got)
		assert.False(t, p.ChangesRanges(base))
	})

	t.Run("merges set fields", func(t *testing.T) {
		t.Parallel()

		p := rule.Patch{
			StopIfTrue: &stop,
			Ranges:     &moved,
			Condition:  rule.Duplicate{Unique: true},
		}

		got := p.Apply(base)
		assert.Equal(t, "r1", got.ID)
		assert.Equal(t, 3, got.Priority)
		assert.True(t, got.StopIfTrue)
		assert.Equal(t, moved, got.Ranges)
		assert.Equal(t, rule.Duplicate{Unique: true}, got.Condition)
		assert.True(t, p.ChangesRanges(base))
	})
}

func TestKind(t *testing.T) {
	t.Parallel()

	for _, k := range rule.Kinds() {
		got, err := rule.ParseKind(string(k))
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}

	_, err := rule.ParseKind("sparkline")
	require.ErrorIs(t, err, rule.ErrInvalidKind)

	assert.True(t, rule.KindTopBottom.RangeAware())
	assert.True(t, rule.KindIconSet.RangeAware())
	assert.False(t, rule.KindExpression.RangeAware())
	assert.False(t, rule.KindValueComparison.RangeAware())
	assert.Empty(t, rule.Rule{}.Kind())
}

func TestCovers(t *testing.T) {
	t.Parallel()

	r := rule.Rule{Ranges: []cell.Range{
		cell.MustParseRange("A1:B2"),
		cell.MustParseRange("D4"),
	}}

	assert.True(t, r.Covers(cell.MustParseAddress("B2")))
	assert.True(t, r.Covers(cell.MustParseAddress("D4")))
	assert.False(t, r.Covers(cell.MustParseAddress("C3")))
	assert.False(t, rule.Rule{}.Covers(cell.Address{}))
}
