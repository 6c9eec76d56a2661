package expr_test

import (
	"testing"

	"github.com/google/cel-go/common/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/condfmt/pkg/cell"
	"github.com/macropower/condfmt/pkg/expr"
)

func TestProgramMatch(t *testing.T) {
	t.Parallel()

	env, err := expr.NewEnvironment()
	require.NoError(t, err)

	tests := []struct {
		name       string
		expression string
		addr       string
		value      cell.Value
		expected   bool
	}{
		{
			name:       "numeric comparison",
			expression: `isNumber(value) && value > 10`,
			addr:       "A1",
			value:      cell.Number(11.5),
			expected:   true,
		},
		{
			name:       "numeric comparison guarded against text",
			expression: `isNumber(value) && value > 10`,
			addr:       "A1",
			value:      cell.Text("eleven"),
			expected:   false,
		},
		{
			name:       "text prefix",
			expression: `isText(value) && value.startsWith("N/")`,
			addr:       "B2",
			value:      cell.Text("N/A"),
			expected:   true,
		},
		{
			name:       "blank cell",
			expression: `isBlank(value)`,
			addr:       "C3",
			value:      cell.Null(),
			expected:   true,
		},
		{
			name:       "error cell is exposed by kind",
			expression: `kind == "error" && isBlank(value)`,
			addr:       "C3",
			value:      cell.Error("#DIV/0!"),
			expected:   true,
		},
		{
			name:       "even rows",
			expression: `row % 2 == 0`,
			addr:       "A3",
			value:      cell.Number(1),
			expected:   true,
		},
		{
			name:       "column name",
			expression: `colName(col) in ["B", "D"]`,
			addr:       "D7",
			value:      cell.Number(1),
			expected:   true,
		},
		{
			name:       "cell name",
			expression: `cell == "AA10"`,
			addr:       "AA10",
			value:      cell.Null(),
			expected:   true,
		},
		{
			name:       "bool value",
			expression: `value == true`,
			addr:       "A1",
			value:      cell.Bool(true),
			expected:   true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			prg, err := env.Compile(tc.expression)
			require.NoError(t, err)
			assert.Equal(t, tc.expression, prg.Source())

			got, err := prg.Match(cell.MustParseAddress(tc.addr), tc.value)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestCompileErrors(t *testing.T) {
	t.Parallel()

	env := expr.MustNewEnvironment()

	tcs := map[string]struct {
		expression string
		notBool    bool
	}{
		"syntax error": {
			expression: `value >`,
		},
		"unknown variable": {
			expression: `sheet == "x"`,
		},
		"string result": {
			expression: `cell + "!"`,
			notBool:    true,
		},
		"int result": {
			expression: `row + 1`,
			notBool:    true,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := env.Compile(tc.expression)
			require.Error(t, err)

			if tc.notBool {
				require.ErrorIs(t, err, expr.ErrNotBoolean)
			}
		})
	}
}

func TestMatchNonBoolResult(t *testing.T) {
	t.Parallel()

	prg, err := expr.Default().Compile(`value`)
	require.NoError(t, err)

	_, err = prg.Match(cell.MustParseAddress("A1"), cell.Number(3))
	require.ErrorIs(t, err, expr.ErrNotBoolean)

	got, err := prg.Match(cell.MustParseAddress("A1"), cell.Bool(true))
	require.NoError(t, err)
	assert.True(t, got)
}

func TestConvertToCELValue(t *testing.T) {
	t.Parallel()

	assert.Equal(t, types.NullValue, expr.ConvertToCELValue(nil))
	assert.Equal(t, types.Double(1.5), expr.ConvertToCELValue(1.5))
	assert.Equal(t, types.Int(2), expr.ConvertToCELValue(2))
	assert.Equal(t, types.String("x"), expr.ConvertToCELValue("x"))
	assert.Equal(t, types.True, expr.ConvertToCELValue(true))
	assert.Equal(t, types.NullValue, expr.ConvertToCELValue(struct{}{}))
}
