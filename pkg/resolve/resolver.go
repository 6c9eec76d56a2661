package resolve

import (
	"fmt"
	"log/slog"

	"github.com/macropower/condfmt/pkg/cell"
	"github.com/macropower/condfmt/pkg/log"
	"github.com/macropower/condfmt/pkg/rule"
)

// Resolver resolves the matching rules for a cell.
type Resolver struct {
	logger *slog.Logger
}

// Option configures a [Resolver].
type Option func(*Resolver)

// WithLogger sets the logger used to report absorbed per-cell anomalies,
// such as expression evaluation errors.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver creates a new [Resolver].
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Resolve evaluates candidates, which must be the rules covering addr in
// priority order, and returns the matching ones. Resolution stops after the
// first matching rule with StopIfTrue set. Accessor failures are returned
// wrapped with addr.
func (r *Resolver) Resolve(addr cell.Address, candidates []rule.Rule, acc cell.Accessor, aggs *Aggregates) (Result, error) {
	var res Result
	if len(candidates) == 0 {
		return res, nil
	}

	v, err := acc.Value(addr)
	if err != nil {
		return Result{}, fmt.Errorf("evaluate %s: %w", addr, err)
	}

	for _, c := range candidates {
		if len(c.Ranges) == 0 {
			continue
		}

		m, ok, err := r.Evaluate(c, addr, v, acc, aggs)
		if err != nil {
			return Result{}, fmt.Errorf("evaluate %s: %w", addr, err)
		}
		if !ok {
			continue
		}

		res.Matches = append(res.Matches, m)

		if c.StopIfTrue {
			break
		}
	}

	return res, nil
}

// Evaluate evaluates a single rule for the cell at addr holding v. Non-numeric
// values for numeric conditions and empty populations are not errors; they
// do not match. Only accessor failures are returned as errors.
func (r *Resolver) Evaluate(
	ru rule.Rule,
	addr cell.Address,
	v cell.Value,
	acc cell.Accessor,
	aggs *Aggregates,
) (Match, bool, error) {
	m := Match{RuleID: ru.ID, Kind: ru.Kind()}

	switch c := ru.Condition.(type) {
	case rule.ValueComparison:
		return m, compare(c, v), nil

	case rule.Expression:
		return m, r.expression(c, addr, v), nil

	case rule.TopBottom, rule.Duplicate, rule.ColorScale, rule.IconSet:
		if v.Kind() == cell.KindNull || v.Kind() == cell.KindError {
			return m, false, nil
		}

		st, err := aggs.Get(ru, acc)
		if err != nil {
			return m, false, err
		}

		var ok bool

		switch c := c.(type) {
		case rule.TopBottom:
			ok = topBottom(c, v, st, &m)
		case rule.Duplicate:
			ok = duplicate(c, v, st, &m)
		case rule.ColorScale:
			ok = colorScale(c, v, st, &m)
		case rule.IconSet:
			ok = iconSet(c, v, st, &m)
		}

		return m, ok, nil
	}

	return m, false, nil
}

func (r *Resolver) expression(c rule.Expression, addr cell.Address, v cell.Value) bool {
	prg := c.Program()
	if prg == nil {
		return false
	}

	ok, err := prg.Match(addr, v)
	if err != nil {
		r.logger.Debug("expression did not match",
			log.Cell(addr),
			slog.Any("err", err),
		)

		return false
	}

	return ok
}
