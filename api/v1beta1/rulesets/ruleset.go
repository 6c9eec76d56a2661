// Package rulesets provides the RuleSet document type, a YAML authoring
// format for conditional formatting rules.
package rulesets

import (
	"errors"
	"fmt"

	"github.com/invopop/jsonschema"

	_ "embed"

	"github.com/macropower/condfmt/api/v1beta1"
	"github.com/macropower/condfmt/pkg/aggregate"
	"github.com/macropower/condfmt/pkg/cell"
	"github.com/macropower/condfmt/pkg/config"
	"github.com/macropower/condfmt/pkg/rule"
	"github.com/macropower/condfmt/pkg/yaml"
)

//go:generate go run ../../../internal/schemagen -root ../../.. -o rulesets.v1beta1.json

var (
	// FileNames contains the conventional names for rule-set files.
	FileNames = []string{
		".condfmt.yaml",
		"condfmt.yaml",
	}

	//go:embed rulesets.v1beta1.json
	SchemaJSON []byte

	// Example is a commented rule set written by "condfmt init".
	//
	//go:embed example.yaml
	Example []byte

	// DefaultValidator validates rule-set documents against the JSON schema.
	DefaultValidator = yaml.MustNewValidator("/rulesets.v1beta1.json", SchemaJSON)

	// ValidKinds contains the valid kind values for rule-set documents.
	ValidKinds = []string{"RuleSet"}

	// Compile-time interface checks.
	_ v1beta1.Object = (*RuleSet)(nil)
)

// RuleSet is an ordered list of rules. Rules are registered in list order,
// so the first rule gets the highest priority.
//
//nolint:recvcheck // Must satisfy the jsonschema interface.
type RuleSet struct {
	v1beta1.TypeMeta `json:",inline"`

	Rules []*RuleSpec `json:"rules" jsonschema:"title=Rules"`
}

// RuleSpec is the document form of a [rule.Rule]. Only the fields relevant
// to Kind may be set.
type RuleSpec struct {
	// ID is optional; the engine generates one when empty.
	ID string `json:"id,omitempty" jsonschema:"title=ID"`
	// Kind selects the condition variant.
	Kind string `json:"kind" jsonschema:"title=Kind,enum=value-comparison,enum=top-bottom,enum=duplicate,enum=color-scale,enum=icon-set,enum=expression"`
	// Operator is the value-comparison operator.
	Operator string `json:"operator,omitempty" jsonschema:"title=Operator,enum=between,enum=notBetween,enum=equal,enum=notEqual,enum=greaterThan,enum=lessThan,enum=greaterThanOrEqual,enum=lessThanOrEqual,enum=containsText,enum=notContainsText,enum=beginsWith,enum=endsWith"`
	// Mode is "top" or "bottom" for top-bottom rules.
	Mode string `json:"mode,omitempty" jsonschema:"title=Mode,enum=top,enum=bottom"`
	// Expr is the CEL source of an expression rule.
	Expr string `json:"expr,omitempty" jsonschema:"title=Expression"`
	// Ranges are A1 references such as "A1:E10" or "C3".
	Ranges []string `json:"ranges" jsonschema:"title=Ranges"`
	// Operands are the constant operands of a value comparison.
	Operands []any `json:"operands,omitempty" jsonschema:"title=Operands"`
	// Stops are the color-scale stops.
	Stops []Stop `json:"stops,omitempty" jsonschema:"title=Stops"`
	// Thresholds are the icon-set thresholds.
	Thresholds []Stop `json:"thresholds,omitempty" jsonschema:"title=Thresholds"`
	// Count is the top-bottom item count.
	Count int `json:"count,omitempty" jsonschema:"title=Count"`
	// Percent is the top-bottom percentage.
	Percent float64 `json:"percent,omitempty" jsonschema:"title=Percent"`
	// Icons is the number of icons of an icon set.
	Icons int `json:"icons,omitempty" jsonschema:"title=Icons"`
	// StopIfTrue halts lower priority rules when this rule matches.
	StopIfTrue bool `json:"stopIfTrue,omitempty" jsonschema:"title=Stop If True"`
	// Unique selects unique instead of duplicate values.
	Unique bool `json:"unique,omitempty" jsonschema:"title=Unique"`
	// Reverse reverses the icon order.
	Reverse bool `json:"reverse,omitempty" jsonschema:"title=Reverse"`
}

// Stop is a color-scale stop or icon-set threshold.
type Stop struct {
	Type  string  `json:"type"            jsonschema:"title=Type,enum=min,enum=max,enum=number,enum=percent,enum=percentile"`
	Value float64 `json:"value,omitempty" jsonschema:"title=Value"`
}

// New creates an empty [RuleSet].
func New() *RuleSet {
	return &RuleSet{
		TypeMeta: v1beta1.TypeMeta{
			APIVersion: v1beta1.APIVersion,
			Kind:       "RuleSet",
		},
	}
}

// EnsureDefaults drops nil entries from the rule list.
func (rs *RuleSet) EnsureDefaults() {
	rules := rs.Rules[:0]
	for _, r := range rs.Rules {
		if r != nil {
			rules = append(rules, r)
		}
	}

	rs.Rules = rules
}

// Validate converts every rule and reports all conversion errors.
func (rs *RuleSet) Validate() error {
	err := v1beta1.CheckTypeMeta(rs, ValidKinds...)
	if err != nil {
		return err //nolint:wrapcheck // Already descriptive.
	}

	_, err = rs.ToRules()

	return err
}

// ToRules converts the document into finalized rules, in list order.
func (rs *RuleSet) ToRules() ([]rule.Rule, error) {
	var (
		rules []rule.Rule
		errs  []error
	)

	for i, spec := range rs.Rules {
		r, err := spec.ToRule()
		if err != nil {
			errs = append(errs, fmt.Errorf("rules[%d]: %w", i, err))
			continue
		}

		rules = append(rules, r)
	}

	if i, ok := rs.duplicateID(); ok {
		errs = append(errs, fmt.Errorf("rules[%d]: %w: %q", i, rule.ErrDuplicateID, rs.Rules[i].ID))
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return rules, nil
}

// duplicateID returns the index of the first rule whose explicit id was
// already used by an earlier rule.
func (rs *RuleSet) duplicateID() (int, bool) {
	seen := make(map[string]struct{}, len(rs.Rules))
	for i, spec := range rs.Rules {
		if spec.ID == "" {
			continue
		}
		if _, ok := seen[spec.ID]; ok {
			return i, true
		}

		seen[spec.ID] = struct{}{}
	}

	return 0, false
}

func (rs RuleSet) JSONSchemaExtend(jss *jsonschema.Schema) {
	v1beta1.ExtendSchemaWithEnums(jss, v1beta1.ValidAPIVersions, ValidKinds)
}

// ToRule converts the spec into a finalized [rule.Rule].
func (s *RuleSpec) ToRule() (rule.Rule, error) {
	kind, err := rule.ParseKind(s.Kind)
	if err != nil {
		return rule.Rule{}, err //nolint:wrapcheck // Already descriptive.
	}

	r := rule.Rule{
		ID:         s.ID,
		StopIfTrue: s.StopIfTrue,
	}

	for i, ref := range s.Ranges {
		rg, err := cell.ParseRange(ref)
		if err != nil {
			return rule.Rule{}, fmt.Errorf("%w: ranges[%d]: %w", rule.ErrInvalidRange, i, err)
		}

		r.Ranges = append(r.Ranges, rg)
	}

	switch kind {
	case rule.KindValueComparison:
		c := rule.ValueComparison{Operator: rule.Operator(s.Operator)}
		for i, o := range s.Operands {
			v, err := cell.FromAny(o)
			if err != nil {
				return rule.Rule{}, fmt.Errorf("%w: operands[%d]: %w", rule.ErrInvalidParameter, i, err)
			}

			c.Operands = append(c.Operands, v)
		}

		r.Condition = c
	case rule.KindTopBottom:
		r.Condition = rule.TopBottom{
			Mode:    aggregate.Mode(s.Mode),
			Count:   s.Count,
			Percent: s.Percent,
		}
	case rule.KindDuplicate:
		r.Condition = rule.Duplicate{Unique: s.Unique}
	case rule.KindColorScale:
		r.Condition = rule.ColorScale{Stops: toStops(s.Stops)}
	case rule.KindIconSet:
		r.Condition = rule.IconSet{
			Thresholds: toStops(s.Thresholds),
			Icons:      s.Icons,
			Reverse:    s.Reverse,
		}
	case rule.KindExpression:
		r.Condition = rule.Expression{Expr: s.Expr}
	}

	return r.Finalize() //nolint:wrapcheck // Errors wrap rule sentinels.
}

// FromRule returns the document form of r. Priorities are implied by list
// position and are not carried.
func FromRule(r rule.Rule) *RuleSpec {
	s := &RuleSpec{
		ID:         r.ID,
		Kind:       string(r.Kind()),
		StopIfTrue: r.StopIfTrue,
	}

	for _, rg := range r.Ranges {
		s.Ranges = append(s.Ranges, rg.String())
	}

	switch c := r.Condition.(type) {
	case rule.ValueComparison:
		s.Operator = string(c.Operator)
		for _, v := range c.Operands {
			s.Operands = append(s.Operands, v.Any())
		}
	case rule.TopBottom:
		s.Mode = string(c.Mode)
		s.Count = c.Count
		s.Percent = c.Percent
	case rule.Duplicate:
		s.Unique = c.Unique
	case rule.ColorScale:
		s.Stops = fromStops(c.Stops)
	case rule.IconSet:
		s.Thresholds = fromStops(c.Thresholds)
		s.Icons = c.Icons
		s.Reverse = c.Reverse
	case rule.Expression:
		s.Expr = c.Expr
	}

	return s
}

// Load reads, validates, and converts the rule set at path.
func Load(path string) (*RuleSet, error) {
	l, err := config.NewLoaderFromFile(path, New, DefaultValidator)
	if err != nil {
		return nil, err //nolint:wrapcheck // Return the original error.
	}

	return load(l)
}

// Parse is like [Load] but reads the document from data.
func Parse(data []byte) (*RuleSet, error) {
	return load(config.NewLoaderFromBytes(data, New, DefaultValidator))
}

func load(l *config.Loader[*RuleSet]) (*RuleSet, error) {
	err := l.Validate()
	if err != nil {
		return nil, err //nolint:wrapcheck // Already a *yaml.Error.
	}

	rs, err := l.Load()
	if err != nil {
		return nil, err //nolint:wrapcheck // Already a *yaml.Error.
	}

	err = v1beta1.CheckTypeMeta(rs, ValidKinds...)
	if err != nil {
		return nil, l.Annotate(err, yaml.NewPathBuilder().Root().Child("kind").Build())
	}

	for i, spec := range rs.Rules {
		_, err := spec.ToRule()
		if err != nil {
			return nil, l.Annotate(err, yaml.NewPathBuilder().Root().Child("rules").Index(uint(i)).Build())
		}
	}

	if i, ok := rs.duplicateID(); ok {
		err := fmt.Errorf("%w: %q", rule.ErrDuplicateID, rs.Rules[i].ID)
		return nil, l.Annotate(err, yaml.NewPathBuilder().Root().Child("rules").Index(uint(i)).Child("id").Build())
	}

	return rs, nil
}

func toStops(in []Stop) []rule.Stop {
	out := make([]rule.Stop, 0, len(in))
	for _, s := range in {
		out = append(out, rule.Stop{Type: rule.StopType(s.Type), Value: s.Value})
	}

	return out
}

func fromStops(in []rule.Stop) []Stop {
	out := make([]Stop, 0, len(in))
	for _, s := range in {
		out = append(out, Stop{Type: string(s.Type), Value: s.Value})
	}

	return out
}
