package rule

import (
	"errors"
	"fmt"
	"slices"

	"github.com/macropower/condfmt/pkg/cell"
)

var (
	// ErrInvalidKind indicates a rule without a condition or with an unknown
	// kind.
	ErrInvalidKind = errors.New("invalid rule kind")
	// ErrInvalidRange indicates a negative or inverted range.
	ErrInvalidRange = errors.New("invalid rule range")
	// ErrInvalidParameter indicates kind parameters that cannot be evaluated.
	ErrInvalidParameter = errors.New("invalid rule parameter")
	// ErrDuplicateID indicates a rule id that is already registered.
	ErrDuplicateID = errors.New("duplicate rule id")
)

// Rule is a conditional formatting rule.
type Rule struct {
	// Condition decides whether a covered cell matches.
	Condition Condition
	// ID is unique per engine. Engines assign one when empty.
	ID string
	// Ranges are the areas the rule applies to. An empty list never matches.
	Ranges []cell.Range
	// Priority orders rules, 0 being the highest. Engines assign it.
	Priority int
	// StopIfTrue halts resolution of lower priority rules once this rule
	// matches.
	StopIfTrue bool
}

// Kind returns the kind of the rule's condition, or an empty [Kind] when the
// rule has no condition.
func (r Rule) Kind() Kind {
	if r.Condition == nil {
		return ""
	}

	return r.Condition.Kind()
}

// RangeAware reports whether evaluating the rule requires statistics over
// its ranges.
func (r Rule) RangeAware() bool {
	return r.Kind().RangeAware()
}

// Covers reports whether any of the rule's ranges contains a.
func (r Rule) Covers(a cell.Address) bool {
	for _, rg := range r.Ranges {
		if rg.Contains(a) {
			return true
		}
	}

	return false
}

// Validate checks the structural well-formedness of the rule.
func (r Rule) Validate() error {
	if r.Condition == nil {
		return fmt.Errorf("%w: missing condition", ErrInvalidKind)
	}
	if !r.Condition.Kind().Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidKind, r.Condition.Kind())
	}

	for i, rg := range r.Ranges {
		if err := rg.Validate(); err != nil {
			return fmt.Errorf("%w: ranges[%d]: %w", ErrInvalidRange, i, err)
		}
	}

	if err := r.Condition.Validate(); err != nil {
		return fmt.Errorf("%s condition: %w", r.Condition.Kind(), err)
	}

	return nil
}

// Clone returns a deep copy of the rule.
func (r Rule) Clone() Rule {
	r.Ranges = slices.Clone(r.Ranges)
	if r.Condition != nil {
		r.Condition = r.Condition.clone()
	}

	return r
}

// Finalize returns a validated deep copy of the rule with any expression
// compiled.
func (r Rule) Finalize() (Rule, error) {
	out := r.Clone()

	if e, ok := out.Condition.(Expression); ok && (e.program == nil || e.program.Source() != e.Expr) {
		compiled, err := NewExpression(e.Expr)
		if err != nil {
			return Rule{}, err
		}

		out.Condition = compiled
	}

	if err := out.Validate(); err != nil {
		return Rule{}, err
	}

	return out, nil
}

// Patch is a partial update of a [Rule]. Nil fields are left unchanged.
type Patch struct {
	Condition  Condition
	Ranges     *[]cell.Range
	StopIfTrue *bool
}

// Apply returns a copy of r with the patch merged in. The id and priority
// are never changed by a patch.
func (p Patch) Apply(r Rule) Rule {
	out := r.Clone()
	if p.Condition != nil {
		out.Condition = p.Condition.clone()
	}
	if p.Ranges != nil {
		out.Ranges = slices.Clone(*p.Ranges)
	}
	if p.StopIfTrue != nil {
		out.StopIfTrue = *p.StopIfTrue
	}

	return out
}

// ChangesRanges reports whether applying the patch to r alters its ranges.
func (p Patch) ChangesRanges(r Rule) bool {
	return p.Ranges != nil && !slices.Equal(*p.Ranges, r.Ranges)
}
