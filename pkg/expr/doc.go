// Package expr provides CEL (Common Expression Language) functionality
// for evaluating per-cell formatting expressions.
//
// Expressions have access to variables:
//   - `value` (dyn): The cell value; a double, string, bool or null
//   - `kind` (string): One of "number", "text", "bool", "null", "error"
//   - `row`, `col` (int): Zero-based coordinates of the cell
//   - `cell` (string): The cell name in A1 notation
//
// And to the custom functions:
//   - isNumber(dyn), isText(dyn), isBlank(dyn): Value kind checks
//   - colName(int): Column letters for a zero-based column index
//
// The CEL math, strings and lists extensions are also enabled.
package expr
