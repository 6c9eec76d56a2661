package resolve

import (
	"github.com/macropower/condfmt/pkg/rule"
)

// Result is the evaluation outcome for one cell.
type Result struct {
	// Matches holds the matching rules in priority order.
	Matches []Match
}

// HasAnyMatch reports whether any rule matched.
func (r Result) HasAnyMatch() bool {
	return len(r.Matches) > 0
}

// RuleIDs returns the ids of the matching rules in priority order.
func (r Result) RuleIDs() []string {
	ids := make([]string, 0, len(r.Matches))
	for _, m := range r.Matches {
		ids = append(ids, m.RuleID)
	}

	return ids
}

// Match is one matching rule and the parameters computed for it.
type Match struct {
	// Rank is set for top-bottom matches.
	Rank *Rank
	// Percentile is set for top-bottom and color-scale matches.
	Percentile *int
	// Extra carries kind specific output.
	Extra Extra

	RuleID string
	Kind   rule.Kind
}

// Rank is the position of a value within its rule's sorted population and
// the threshold it was compared against.
type Rank struct {
	Position  int     `json:"position"  yaml:"position"`
	Total     int     `json:"total"     yaml:"total"`
	Threshold float64 `json:"threshold" yaml:"threshold"`
}

// Extra is kind specific match output. The set of implementations is closed.
type Extra interface {
	extra()
}

// DuplicateExtra is the output of a duplicate match.
type DuplicateExtra struct {
	// Occurrences is how many cells in the rule's ranges share the value.
	Occurrences int `json:"occurrences" yaml:"occurrences"`
}

// ScaleExtra is the output of a color-scale match.
type ScaleExtra struct {
	// Fraction is the position of the value along the whole scale, in [0, 1].
	Fraction float64 `json:"fraction" yaml:"fraction"`
	// Segment is the index of the stop pair the value falls between.
	Segment int `json:"segment" yaml:"segment"`
}

// IconExtra is the output of an icon-set match.
type IconExtra struct {
	// Index is the 0-based icon index.
	Index int `json:"index" yaml:"index"`
}

func (DuplicateExtra) extra() {}
func (ScaleExtra) extra()     {}
func (IconExtra) extra()      {}

// Clone returns a deep copy of the result.
func (r Result) Clone() Result {
	if r.Matches == nil {
		return Result{}
	}

	out := Result{Matches: make([]Match, len(r.Matches))}
	for i, m := range r.Matches {
		if m.Rank != nil {
			rank := *m.Rank
			m.Rank = &rank
		}
		if m.Percentile != nil {
			p := *m.Percentile
			m.Percentile = &p
		}

		out.Matches[i] = m
	}

	return out
}
