package rule

import (
	"fmt"
	"math"
	"slices"

	"github.com/macropower/condfmt/pkg/aggregate"
	"github.com/macropower/condfmt/pkg/cell"
	"github.com/macropower/condfmt/pkg/expr"
)

// Kind identifies a [Condition] variant.
type Kind string

const (
	KindValueComparison Kind = "value-comparison"
	KindTopBottom       Kind = "top-bottom"
	KindDuplicate       Kind = "duplicate"
	KindColorScale      Kind = "color-scale"
	KindIconSet         Kind = "icon-set"
	KindExpression      Kind = "expression"
)

// Kinds returns every supported [Kind].
func Kinds() []Kind {
	return []Kind{
		KindValueComparison,
		KindTopBottom,
		KindDuplicate,
		KindColorScale,
		KindIconSet,
		KindExpression,
	}
}

// ParseKind returns the [Kind] named by s.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}

	return k, nil
}

// Valid reports whether k is a supported kind.
func (k Kind) Valid() bool {
	return slices.Contains(Kinds(), k)
}

// RangeAware reports whether conditions of this kind need statistics over
// the rule's ranges.
func (k Kind) RangeAware() bool {
	switch k {
	case KindTopBottom, KindDuplicate, KindColorScale, KindIconSet:
		return true
	case KindValueComparison, KindExpression:
		return false
	}

	return false
}

// Condition is the kind specific part of a [Rule]. The set of
// implementations is closed.
type Condition interface {
	Kind() Kind
	Validate() error

	clone() Condition
}

// Operator is a [ValueComparison] operator.
type Operator string

const (
	OpBetween            Operator = "between"
	OpNotBetween         Operator = "notBetween"
	OpEqual              Operator = "equal"
	OpNotEqual           Operator = "notEqual"
	OpGreaterThan        Operator = "greaterThan"
	OpLessThan           Operator = "lessThan"
	OpGreaterThanOrEqual Operator = "greaterThanOrEqual"
	OpLessThanOrEqual    Operator = "lessThanOrEqual"
	OpContainsText       Operator = "containsText"
	OpNotContainsText    Operator = "notContainsText"
	OpBeginsWith         Operator = "beginsWith"
	OpEndsWith           Operator = "endsWith"
)

// Operators returns every supported [Operator].
func Operators() []Operator {
	return []Operator{
		OpBetween, OpNotBetween, OpEqual, OpNotEqual,
		OpGreaterThan, OpLessThan, OpGreaterThanOrEqual, OpLessThanOrEqual,
		OpContainsText, OpNotContainsText, OpBeginsWith, OpEndsWith,
	}
}

// Arity returns the number of operands the operator takes.
func (o Operator) Arity() int {
	if o == OpBetween || o == OpNotBetween {
		return 2
	}

	return 1
}

// Numeric reports whether the operator only applies to numbers.
func (o Operator) Numeric() bool {
	switch o {
	case OpBetween, OpNotBetween, OpGreaterThan, OpLessThan,
		OpGreaterThanOrEqual, OpLessThanOrEqual:
		return true
	}

	return false
}

// Textual reports whether the operator only applies to text.
func (o Operator) Textual() bool {
	switch o {
	case OpContainsText, OpNotContainsText, OpBeginsWith, OpEndsWith:
		return true
	}

	return false
}

// ValueComparison compares the cell value against constant operands.
type ValueComparison struct {
	Operator Operator
	Operands []cell.Value
}

// Kind implements [Condition].
func (ValueComparison) Kind() Kind { return KindValueComparison }

// Validate implements [Condition].
func (c ValueComparison) Validate() error {
	if !slices.Contains(Operators(), c.Operator) {
		return fmt.Errorf("%w: unknown operator %q", ErrInvalidParameter, c.Operator)
	}
	if len(c.Operands) != c.Operator.Arity() {
		return fmt.Errorf("%w: operator %s takes %d operand(s), got %d",
			ErrInvalidParameter, c.Operator, c.Operator.Arity(), len(c.Operands))
	}

	for i, v := range c.Operands {
		switch {
		case c.Operator.Numeric() && v.Kind() != cell.KindNumber:
			return fmt.Errorf("%w: operand %d of %s must be a number, got %s",
				ErrInvalidParameter, i, c.Operator, v.Kind())
		case c.Operator.Textual() && v.Kind() != cell.KindText:
			return fmt.Errorf("%w: operand %d of %s must be text, got %s",
				ErrInvalidParameter, i, c.Operator, v.Kind())
		case v.Kind() == cell.KindNull || v.Kind() == cell.KindError:
			return fmt.Errorf("%w: operand %d of %s cannot be %s",
				ErrInvalidParameter, i, c.Operator, v.Kind())
		}
	}

	return nil
}

func (c ValueComparison) clone() Condition {
	c.Operands = slices.Clone(c.Operands)
	return c
}

// TopBottom matches the highest or lowest values of the rule's ranges.
// Exactly one of Count and Percent is set.
type TopBottom struct {
	Mode    aggregate.Mode
	Count   int
	Percent float64
}

// Kind implements [Condition].
func (TopBottom) Kind() Kind { return KindTopBottom }

// Limit returns the count or percent as an [aggregate.Limit].
func (c TopBottom) Limit() aggregate.Limit {
	return aggregate.Limit{Count: c.Count, Percent: c.Percent}
}

// Validate implements [Condition].
func (c TopBottom) Validate() error {
	if c.Mode != aggregate.Top && c.Mode != aggregate.Bottom {
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidParameter, c.Mode)
	}
	if err := c.Limit().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidParameter, err)
	}

	return nil
}

func (c TopBottom) clone() Condition { return c }

// Duplicate matches values that occur more than once in the rule's ranges,
// or exactly once when Unique is set.
type Duplicate struct {
	Unique bool
}

// Kind implements [Condition].
func (Duplicate) Kind() Kind { return KindDuplicate }

// Validate implements [Condition].
func (Duplicate) Validate() error { return nil }

func (c Duplicate) clone() Condition { return c }

// StopType selects how a [Stop] value is resolved against a population.
type StopType string

const (
	StopMin        StopType = "min"
	StopMax        StopType = "max"
	StopNumber     StopType = "number"
	StopPercent    StopType = "percent"
	StopPercentile StopType = "percentile"
)

// Stop is a color-scale stop or icon-set threshold.
type Stop struct {
	Type  StopType
	Value float64
}

// Resolve returns the stop's value for the given population statistics.
func (s Stop) Resolve(st *aggregate.Stats) float64 {
	switch s.Type {
	case StopMin:
		return st.Min
	case StopMax:
		return st.Max
	case StopPercent:
		return st.ValueAtPercent(s.Value)
	case StopPercentile:
		return st.ValueAtPercentile(s.Value)
	case StopNumber:
		return s.Value
	}

	return s.Value
}

func (s Stop) validate(allowed ...StopType) error {
	if !slices.Contains(allowed, s.Type) {
		return fmt.Errorf("%w: stop type %q not one of %v", ErrInvalidParameter, s.Type, allowed)
	}
	if math.IsNaN(s.Value) || math.IsInf(s.Value, 0) {
		return fmt.Errorf("%w: stop value %g is not finite", ErrInvalidParameter, s.Value)
	}
	if (s.Type == StopPercent || s.Type == StopPercentile) && (s.Value < 0 || s.Value > 100) {
		return fmt.Errorf("%w: %s stop %g is outside [0, 100]", ErrInvalidParameter, s.Type, s.Value)
	}

	return nil
}

// ColorScale positions every numeric value along two or three stops.
type ColorScale struct {
	Stops []Stop
}

// Kind implements [Condition].
func (ColorScale) Kind() Kind { return KindColorScale }

// Validate implements [Condition].
func (c ColorScale) Validate() error {
	if len(c.Stops) != 2 && len(c.Stops) != 3 {
		return fmt.Errorf("%w: color scale needs 2 or 3 stops, got %d", ErrInvalidParameter, len(c.Stops))
	}

	for i, s := range c.Stops {
		err := s.validate(StopMin, StopMax, StopNumber, StopPercent, StopPercentile)
		if err != nil {
			return fmt.Errorf("stops[%d]: %w", i, err)
		}
	}

	if c.Stops[0].Type == StopMax {
		return fmt.Errorf("%w: first stop cannot be max", ErrInvalidParameter)
	}
	if c.Stops[len(c.Stops)-1].Type == StopMin {
		return fmt.Errorf("%w: last stop cannot be min", ErrInvalidParameter)
	}

	return nil
}

func (c ColorScale) clone() Condition {
	c.Stops = slices.Clone(c.Stops)
	return c
}

const (
	MinIcons = 3
	MaxIcons = 5
)

// IconSet assigns every numeric value an icon index by comparing it against
// ascending thresholds.
type IconSet struct {
	Thresholds []Stop
	Icons      int
	Reverse    bool
}

// Kind implements [Condition].
func (IconSet) Kind() Kind { return KindIconSet }

// Validate implements [Condition].
func (c IconSet) Validate() error {
	if c.Icons < MinIcons || c.Icons > MaxIcons {
		return fmt.Errorf("%w: icon count %d is outside [%d, %d]", ErrInvalidParameter, c.Icons, MinIcons, MaxIcons)
	}
	if len(c.Thresholds) != c.Icons-1 {
		return fmt.Errorf("%w: %d icons need %d thresholds, got %d",
			ErrInvalidParameter, c.Icons, c.Icons-1, len(c.Thresholds))
	}

	for i, s := range c.Thresholds {
		if err := s.validate(StopNumber, StopPercent, StopPercentile); err != nil {
			return fmt.Errorf("thresholds[%d]: %w", i, err)
		}
		if i > 0 && s.Type == c.Thresholds[i-1].Type && s.Value < c.Thresholds[i-1].Value {
			return fmt.Errorf("%w: thresholds[%d] %g is below thresholds[%d] %g",
				ErrInvalidParameter, i, s.Value, i-1, c.Thresholds[i-1].Value)
		}
	}

	return nil
}

func (c IconSet) clone() Condition {
	c.Thresholds = slices.Clone(c.Thresholds)
	return c
}

// Expression matches cells for which a CEL expression returns true.
// See [expr] for the variables and functions available.
type Expression struct {
	program *expr.Program

	Expr string
}

// NewExpression compiles src with the default environment.
func NewExpression(src string) (Expression, error) {
	if src == "" {
		return Expression{}, fmt.Errorf("%w: empty expression", ErrInvalidParameter)
	}

	prg, err := expr.Default().Compile(src)
	if err != nil {
		return Expression{}, fmt.Errorf("%w: %w", ErrInvalidParameter, err)
	}

	return Expression{Expr: src, program: prg}, nil
}

// MustNewExpression is like [NewExpression] but panics on error.
func MustNewExpression(src string) Expression {
	e, err := NewExpression(src)
	if err != nil {
		panic(err)
	}

	return e
}

// Kind implements [Condition].
func (Expression) Kind() Kind { return KindExpression }

// Program returns the compiled program, or nil when the expression was
// built without [NewExpression] and has not been finalized.
func (e Expression) Program() *expr.Program { return e.program }

// Validate implements [Condition].
func (e Expression) Validate() error {
	if e.Expr == "" {
		return fmt.Errorf("%w: empty expression", ErrInvalidParameter)
	}
	if e.program == nil {
		return fmt.Errorf("%w: expression %q is not compiled", ErrInvalidParameter, e.Expr)
	}
	if e.program.Source() != e.Expr {
		return fmt.Errorf("%w: expression %q does not match its program", ErrInvalidParameter, e.Expr)
	}

	return nil
}

func (e Expression) clone() Condition { return e }
