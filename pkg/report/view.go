package report

import (
	"fmt"
	"slices"
	"strings"

	"github.com/macropower/condfmt/api/v1beta1/rulesets"
	"github.com/macropower/condfmt/pkg/cell"
	"github.com/macropower/condfmt/pkg/engine"
	"github.com/macropower/condfmt/pkg/resolve"
	"github.com/macropower/condfmt/pkg/rule"
)

// Cell is the evaluation result of one cell.
type Cell struct {
	Value   any     `json:"value"   jsonschema:"the cell value, null when blank"`
	Cell    string  `json:"cell"    jsonschema:"the cell in A1 notation"`
	Kind    string  `json:"kind"    jsonschema:"the value kind: number, text, bool, null, or error"`
	Matches []Match `json:"matches" jsonschema:"the matching rules in priority order"`
}

// Match is one matching rule and its computed parameters.
type Match struct {
	Rank        *resolve.Rank `json:"rank,omitempty"        jsonschema:"position, population size, and threshold of a top-bottom match"`
	Percentile  *int          `json:"percentile,omitempty"  jsonschema:"percentile of the value within the rule's ranges"`
	Occurrences *int          `json:"occurrences,omitempty" jsonschema:"how many cells share the value, for duplicate rules"`
	Fraction    *float64      `json:"fraction,omitempty"    jsonschema:"position along a color scale, from 0 to 1"`
	Segment     *int          `json:"segment,omitempty"     jsonschema:"color scale stop pair the value falls in"`
	Icon        *int          `json:"icon,omitempty"        jsonschema:"0-based icon index of an icon-set match"`
	Rule        string        `json:"rule"                  jsonschema:"the rule id"`
	Kind        string        `json:"kind"                  jsonschema:"the rule kind"`
}

// Explanation is the inspection view of one cell.
type Explanation struct {
	Result     Cell     `json:"result"     jsonschema:"the evaluation result of the cell"`
	Candidates []string `json:"candidates" jsonschema:"ids of every rule covering the cell, in priority order"`
	Rules      []Rule   `json:"rules"      jsonschema:"the rules that matched, in priority order"`
	Revision   uint64   `json:"revision"   jsonschema:"the engine revision the result was computed at"`
}

// Rule is a registered rule.
type Rule struct {
	ID         string   `json:"id"         jsonschema:"the rule id"`
	Kind       string   `json:"kind"       jsonschema:"the rule kind"`
	Summary    string   `json:"summary"    jsonschema:"the condition in short form, such as 'top 3' or 'greaterThan 10'"`
	Ranges     []string `json:"ranges"     jsonschema:"the ranges the rule applies to, in A1 notation"`
	Priority   int      `json:"priority"   jsonschema:"the rule priority, 0 being the highest"`
	StopIfTrue bool     `json:"stopIfTrue" jsonschema:"whether lower priority rules are skipped when this rule matches"`
}

// NewCell builds the view of a cell's result.
func NewCell(a cell.Address, v cell.Value, res resolve.Result) Cell {
	c := Cell{
		Cell:    a.String(),
		Value:   v.Any(),
		Kind:    v.Kind().String(),
		Matches: make([]Match, 0, len(res.Matches)),
	}

	for _, m := range res.Matches {
		c.Matches = append(c.Matches, NewMatch(m))
	}

	return c
}

// NewMatch builds the view of a match.
func NewMatch(m resolve.Match) Match {
	out := Match{
		Rule:       m.RuleID,
		Kind:       string(m.Kind),
		Rank:       m.Rank,
		Percentile: m.Percentile,
	}

	switch x := m.Extra.(type) {
	case resolve.DuplicateExtra:
		out.Occurrences = &x.Occurrences
	case resolve.ScaleExtra:
		out.Fraction = &x.Fraction
		out.Segment = &x.Segment
	case resolve.IconExtra:
		out.Icon = &x.Index
	}

	return out
}

// NewRule builds the view of a registered rule.
func NewRule(r rule.Rule) Rule {
	spec := rulesets.FromRule(r)

	return Rule{
		ID:         r.ID,
		Kind:       spec.Kind,
		Summary:    Summarize(spec),
		Ranges:     spec.Ranges,
		Priority:   r.Priority,
		StopIfTrue: r.StopIfTrue,
	}
}

// Summarize renders the condition of spec in short form.
func Summarize(spec *rulesets.RuleSpec) string {
	switch rule.Kind(spec.Kind) {
	case rule.KindValueComparison:
		parts := []string{spec.Operator}
		for _, o := range spec.Operands {
			parts = append(parts, fmt.Sprint(o))
		}

		return strings.Join(parts, " ")
	case rule.KindTopBottom:
		if spec.Percent != 0 {
			return fmt.Sprintf("%s %g%%", spec.Mode, spec.Percent)
		}

		return fmt.Sprintf("%s %d", spec.Mode, spec.Count)
	case rule.KindDuplicate:
		if spec.Unique {
			return "unique"
		}

		return "duplicate"
	case rule.KindColorScale:
		return fmt.Sprintf("%d-color scale", len(spec.Stops))
	case rule.KindIconSet:
		s := fmt.Sprintf("%d icons", spec.Icons)
		if spec.Reverse {
			s += ", reversed"
		}

		return s
	case rule.KindExpression:
		return spec.Expr
	}

	return spec.Kind
}

// NewExplanation builds the inspection view.
func NewExplanation(ex engine.Explanation) Explanation {
	out := Explanation{
		Result:     NewCell(ex.Address, ex.Value, ex.Result),
		Candidates: slices.Clone(ex.Candidates),
		Revision:   ex.Revision,
		Rules:      make([]Rule, 0, len(ex.Matches)),
	}

	if out.Candidates == nil {
		out.Candidates = []string{}
	}

	for _, m := range ex.Matches {
		out.Rules = append(out.Rules, NewRule(m.Rule))
	}

	return out
}

// Cells builds views for results, in row-major order. Cells without matches
// are dropped unless all is set.
func Cells(results map[cell.Address]resolve.Result, acc cell.Accessor, all bool) ([]Cell, error) {
	addrs := make([]cell.Address, 0, len(results))
	for a, res := range results {
		if all || res.HasAnyMatch() {
			addrs = append(addrs, a)
		}
	}

	slices.SortFunc(addrs, func(a, b cell.Address) int {
		switch {
		case a.Less(b):
			return -1
		case b.Less(a):
			return 1
		}

		return 0
	})

	out := make([]Cell, 0, len(addrs))

	for _, a := range addrs {
		v, err := acc.Value(a)
		if err != nil {
			return nil, err //nolint:wrapcheck // Accessor errors are already descriptive.
		}

		out = append(out, NewCell(a, v, results[a]))
	}

	return out, nil
}
