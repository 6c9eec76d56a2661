package expr

import (
	"math"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/ext"
	"github.com/xuri/excelize/v2"
)

type lib struct{}

func (lib) CompileOptions() []cel.EnvOption {
	return []cel.EnvOption{
		ext.Math(),
		ext.Strings(),
		ext.Lists(),
		cel.CrossTypeNumericComparisons(true),

		cel.Variable("value", cel.DynType),
		cel.Variable("kind", cel.StringType),
		cel.Variable("row", cel.IntType),
		cel.Variable("col", cel.IntType),
		cel.Variable("cell", cel.StringType),

		// `isNumber` reports whether the value is numeric.
		// Example: isNumber(value) && value > 10.
		cel.Function("isNumber",
			cel.Overload("is_number_dyn", []*cel.Type{cel.DynType}, cel.BoolType,
				cel.UnaryBinding(func(v ref.Val) ref.Val {
					switch v.(type) {
					case types.Double, types.Int, types.Uint:
						return types.True
					}

					return types.False
				}),
			),
		),

		// `isText` reports whether the value is a string.
		// Example: isText(value) && value.startsWith("N/").
		cel.Function("isText",
			cel.Overload("is_text_dyn", []*cel.Type{cel.DynType}, cel.BoolType,
				cel.UnaryBinding(func(v ref.Val) ref.Val {
					_, ok := v.(types.String)
					return types.Bool(ok)
				}),
			),
		),

		// `isBlank` reports whether the value is null.
		// Example: isBlank(value).
		cel.Function("isBlank",
			cel.Overload("is_blank_dyn", []*cel.Type{cel.DynType}, cel.BoolType,
				cel.UnaryBinding(func(v ref.Val) ref.Val {
					return types.Bool(v == types.NullValue)
				}),
			),
		),

		// `colName` returns the column letters for a zero-based column index.
		// Example: colName(col) in ["B", "D"].
		cel.Function("colName",
			cel.Overload("col_name_int", []*cel.Type{cel.IntType}, cel.StringType,
				cel.UnaryBinding(func(c ref.Val) ref.Val {
					idx, ok := c.(types.Int)
					if !ok {
						return types.NewErr("colName: invalid column value")
					}
					if idx < 0 || idx >= math.MaxInt32 {
						return types.NewErr("colName: column %d out of range", int64(idx))
					}

					name, err := excelize.ColumnNumberToName(int(idx) + 1)
					if err != nil {
						return types.NewErr("colName: %v", err)
					}

					return types.String(name)
				}),
			),
		),
	}
}

func (lib) ProgramOptions() []cel.ProgramOption {
	return []cel.ProgramOption{}
}

// ConvertToCELValue converts a plain cell payload to a CEL value.
// Unsupported types become null.
//
//nolint:ireturn // Following CEL's function signature.
func ConvertToCELValue(value any) ref.Val {
	switch v := value.(type) {
	case nil:
		return types.NullValue

	case bool:
		return types.Bool(v)

	case int:
		return types.Int(v)

	case int64:
		return types.Int(v)

	case float32:
		return types.Double(float64(v))

	case float64:
		return types.Double(v)

	case string:
		return types.String(v)

	default:
		return types.NullValue
	}
}
