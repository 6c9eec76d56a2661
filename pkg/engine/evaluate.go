package engine

import (
	"fmt"
	"log/slog"

	"github.com/macropower/condfmt/pkg/cell"
	"github.com/macropower/condfmt/pkg/resolve"
	"github.com/macropower/condfmt/pkg/rule"
)

// entry is a cached result and the state it was computed against.
type entry struct {
	// Data epochs of the range-aware rules covering the cell.
	epochs   map[string]uint64
	result   resolve.Result
	revision uint64
}

// lookup returns the cached result for a when it is still valid.
func (e *Engine) lookup(a cell.Address, candidates []rule.Rule) (resolve.Result, bool) {
	ent, ok := e.cache[a]
	if !ok || ent.revision != e.revision || e.dirty.IsDirty(a) {
		return resolve.Result{}, false
	}

	for _, r := range candidates {
		if r.RangeAware() && ent.epochs[r.ID] != e.epochs[r.ID] {
			return resolve.Result{}, false
		}
	}

	return ent.result, true
}

func (e *Engine) store(a cell.Address, candidates []rule.Rule, res resolve.Result) {
	var epochs map[string]uint64
	for _, r := range candidates {
		if !r.RangeAware() {
			continue
		}
		if epochs == nil {
			epochs = map[string]uint64{}
		}

		epochs[r.ID] = e.epochs[r.ID]
	}

	e.cache[a] = entry{result: res, revision: e.revision, epochs: epochs}
	e.dirty.Clear(a)
}

// EvaluateCell returns the matching rules for a. A valid cached result is
// returned without reading any value. Accessor failures are returned.
func (e *Engine) EvaluateCell(a cell.Address, acc cell.Accessor) (resolve.Result, error) {
	return e.evaluate(a, acc, resolve.NewAggregates())
}

func (e *Engine) evaluate(a cell.Address, acc cell.Accessor, aggs *resolve.Aggregates) (resolve.Result, error) {
	candidates := e.candidates(a)

	if res, ok := e.lookup(a, candidates); ok {
		e.hits++
		return res.Clone(), nil
	}

	e.misses++

	res, err := e.resolver.Resolve(a, candidates, acc, aggs)
	if err != nil {
		return resolve.Result{}, err
	}

	e.store(a, candidates, res)

	return res.Clone(), nil
}

// EvaluateBatch evaluates every address in addrs. It first drains the dirty
// set, evicting the drained cells from the cache, then computes the
// statistics of each range-aware rule intersecting the cells that need
// evaluation once for the whole batch. An accessor failure aborts the batch
// and no partial result is returned.
func (e *Engine) EvaluateBatch(addrs []cell.Address, acc cell.Accessor) (map[cell.Address]resolve.Result, error) {
	for a := range e.dirty.Drain() {
		if _, ok := e.cache[a]; ok {
			delete(e.cache, a)
			e.evictions++
		}
	}

	out := make(map[cell.Address]resolve.Result, len(addrs))
	aggs := resolve.NewAggregates()

	var stale []cell.Range
	for _, a := range addrs {
		if _, ok := e.lookup(a, e.candidates(a)); !ok {
			stale = append(stale, cell.SingleCell(a))
		}
	}

	if bounds, ok := cell.Bounds(stale); ok {
		ids := e.index.RulesIntersecting(bounds)

		rules := make([]rule.Rule, 0, len(ids))
		for _, id := range ids {
			rules = append(rules, e.rules[id])
		}

		if err := aggs.Prefill(rules, acc); err != nil {
			return nil, err
		}
	}

	for _, a := range addrs {
		res, err := e.evaluate(a, acc, aggs)
		if err != nil {
			return nil, err
		}

		out[a] = res
	}

	e.logger.Debug("evaluated batch",
		slog.Int("cells", len(addrs)),
		slog.Int("stale", len(stale)),
		slog.Int("aggregates", aggs.Computed()),
	)

	return out, nil
}

// Explanation describes why a cell is formatted the way it is.
type Explanation struct {
	// Value is the cell value at the time of the call.
	Value cell.Value
	// Candidates are the ids of all rules covering the cell, in priority
	// order.
	Candidates []string
	// Matches pairs each match with the rule it came from.
	Matches []ExplainedMatch

	Result   resolve.Result
	Address  cell.Address
	Revision uint64
}

// ExplainedMatch is a match and its originating rule.
type ExplainedMatch struct {
	Rule  rule.Rule
	Match resolve.Match
}

// Inspect evaluates a and returns the result along with the rules that
// produced it. It reads the cell value once for display.
func (e *Engine) Inspect(a cell.Address, acc cell.Accessor) (Explanation, error) {
	res, err := e.EvaluateCell(a, acc)
	if err != nil {
		return Explanation{}, err
	}

	v, err := acc.Value(a)
	if err != nil {
		return Explanation{}, fmt.Errorf("inspect %s: %w", a, err)
	}

	ex := Explanation{
		Address:    a,
		Value:      v,
		Result:     res,
		Revision:   e.revision,
		Candidates: e.index.RulesContaining(a),
	}

	for _, m := range res.Matches {
		ex.Matches = append(ex.Matches, ExplainedMatch{
			Rule:  e.rules[m.RuleID].Clone(),
			Match: m,
		})
	}

	return ex, nil
}
