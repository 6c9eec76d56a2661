package resolve

import (
	"fmt"

	"github.com/macropower/condfmt/pkg/aggregate"
	"github.com/macropower/condfmt/pkg/cell"
	"github.com/macropower/condfmt/pkg/rule"
)

// Aggregates memoizes per-rule statistics for one evaluation pass. It must
// not outlive the pass, since it holds values read through the pass's
// accessor. A nil *Aggregates computes statistics on every call.
type Aggregates struct {
	stats    map[string]*aggregate.Stats
	computed int
}

// NewAggregates creates an empty [Aggregates].
func NewAggregates() *Aggregates {
	return &Aggregates{stats: map[string]*aggregate.Stats{}}
}

// Get returns the statistics of r's ranges, computing them on first use.
func (a *Aggregates) Get(r rule.Rule, acc cell.Accessor) (*aggregate.Stats, error) {
	if a != nil {
		if st, ok := a.stats[r.ID]; ok {
			return st, nil
		}
	}

	st, err := aggregate.Compute(r.Ranges, acc)
	if err != nil {
		return nil, fmt.Errorf("aggregate rule %q: %w", r.ID, err)
	}

	if a != nil {
		a.stats[r.ID] = st
		a.computed++
	}

	return st, nil
}

// Prefill computes the statistics of every range-aware rule in rules.
func (a *Aggregates) Prefill(rules []rule.Rule, acc cell.Accessor) error {
	for _, r := range rules {
		if !r.RangeAware() {
			continue
		}
		if _, err := a.Get(r, acc); err != nil {
			return err
		}
	}

	return nil
}

// Has reports whether statistics for the rule id are memoized.
func (a *Aggregates) Has(ruleID string) bool {
	if a == nil {
		return false
	}

	_, ok := a.stats[ruleID]

	return ok
}

// Computed returns how many rule statistics were computed.
func (a *Aggregates) Computed() int {
	if a == nil {
		return 0
	}

	return a.computed
}
