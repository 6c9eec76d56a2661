// Package session pairs an engine with a rule-set file and a value file.
//
// A [Session] serializes access to its engine, so one session can back a
// watch loop and an MCP server at the same time. Reloading the value file
// marks changed cells dirty; reloading the rule-set file updates, moves,
// registers, or removes rules so unchanged rules keep their cached results.
package session

import (
	"fmt"
	"iter"
	"log/slog"
	"sync"

	"github.com/macropower/condfmt/api/v1beta1/rulesets"
	"github.com/macropower/condfmt/pkg/cell"
	"github.com/macropower/condfmt/pkg/engine"
	"github.com/macropower/condfmt/pkg/log"
	"github.com/macropower/condfmt/pkg/report"
	"github.com/macropower/condfmt/pkg/rule"
	"github.com/macropower/condfmt/pkg/workbook"
)

// Session owns an [engine.Engine] and the current value snapshot.
type Session struct {
	logger *slog.Logger
	engine *engine.Engine
	grid   *workbook.Grid

	// ids of rules registered without an explicit id.
	generated map[string]struct{}

	rulesPath  string
	valuesPath string
	sheet      string

	mu sync.Mutex
}

// Option configures a [Session].
type Option func(*Session)

// WithLogger sets the logger of the session and its engine.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithSheet selects the worksheet read from workbook value files.
func WithSheet(sheet string) Option {
	return func(s *Session) {
		s.sheet = sheet
	}
}

// Open loads the rule set at rulesPath and the values at valuesPath.
func Open(rulesPath, valuesPath string, opts ...Option) (*Session, error) {
	s := &Session{
		logger:     slog.Default(),
		rulesPath:  rulesPath,
		valuesPath: valuesPath,
		generated:  map[string]struct{}{},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.engine = engine.New(engine.WithLogger(s.logger))

	rs, err := rulesets.Load(rulesPath)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}

	err = s.syncRuleSet(rs)
	if err != nil {
		return nil, err
	}

	s.grid, err = workbook.Load(valuesPath, s.sheet)
	if err != nil {
		return nil, fmt.Errorf("load values: %w", err)
	}

	return s, nil
}

// New creates a session over already loaded rules and values. Reloading is
// not available on sessions created with New.
func New(rules []rule.Rule, grid *workbook.Grid, opts ...Option) (*Session, error) {
	s := &Session{
		logger:    slog.Default(),
		grid:      grid,
		generated: map[string]struct{}{},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.engine = engine.New(engine.WithLogger(s.logger))

	err := s.syncRules(rules)
	if err != nil {
		return nil, err
	}

	return s, nil
}

// RulesPath returns the rule-set file path, if any.
func (s *Session) RulesPath() string { return s.rulesPath }

// ValuesPath returns the value file path, if any.
func (s *Session) ValuesPath() string { return s.valuesPath }

// Sheet returns the name of the loaded worksheet.
func (s *Session) Sheet() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.grid.Sheet
}

// Bounds returns the smallest range holding every non-blank value.
func (s *Session) Bounds() (cell.Range, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.grid.Bounds()
}

// Stats returns the engine counters.
func (s *Session) Stats() engine.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.engine.Stats()
}

// Evaluate evaluates every cell of ranges in one batch. Cells without
// matches are dropped unless all is set. It also returns the number of
// cells evaluated.
func (s *Session) Evaluate(ranges []cell.Range, all bool) ([]report.Cell, int, error) {
	seen := map[cell.Address]struct{}{}

	var addrs []cell.Address

	for _, r := range ranges {
		r.Each(func(a cell.Address) bool {
			if _, ok := seen[a]; !ok {
				seen[a] = struct{}{}
				addrs = append(addrs, a)
			}

			return true
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	results, err := s.engine.EvaluateBatch(addrs, s.grid)
	if err != nil {
		return nil, 0, fmt.Errorf("evaluate: %w", err)
	}

	cells, err := report.Cells(results, s.grid, all)
	if err != nil {
		return nil, 0, fmt.Errorf("read values: %w", err)
	}

	return cells, len(addrs), nil
}

// Explain returns the inspection view of a.
func (s *Session) Explain(a cell.Address) (report.Explanation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ex, err := s.engine.Inspect(a, s.grid)
	if err != nil {
		return report.Explanation{}, fmt.Errorf("explain: %w", err)
	}

	return report.NewExplanation(ex), nil
}

// Rules returns the registered rules in priority order.
func (s *Session) Rules() []report.Rule {
	s.mu.Lock()
	defer s.mu.Unlock()

	rules := s.engine.Rules()

	out := make([]report.Rule, 0, len(rules))
	for _, r := range rules {
		out = append(out, report.NewRule(r))
	}

	return out
}

// ReloadValues re-reads the value file and marks every changed cell dirty.
// It returns the changed addresses in row-major order.
func (s *Session) ReloadValues() ([]cell.Address, error) {
	if s.valuesPath == "" {
		return nil, nil
	}

	grid, err := workbook.Load(s.valuesPath, s.sheet)
	if err != nil {
		return nil, fmt.Errorf("reload values: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	changed := workbook.Diff(s.grid, grid)
	for _, a := range changed {
		s.engine.MarkCellDirty(a)
	}

	s.grid = grid

	s.logger.Debug("reloaded values",
		slog.String("path", s.valuesPath),
		slog.Int("changed", len(changed)),
	)

	return changed, nil
}

// ReloadRules re-reads the rule-set file and applies it to the engine.
func (s *Session) ReloadRules() error {
	if s.rulesPath == "" {
		return nil
	}

	rs, err := rulesets.Load(s.rulesPath)
	if err != nil {
		return fmt.Errorf("reload rules: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.syncRuleSet(rs)
}

// syncRuleSet converts rs and applies it with [Session.syncRules].
func (s *Session) syncRuleSet(rs *rulesets.RuleSet) error {
	rules, err := rs.ToRules()
	if err != nil {
		return fmt.Errorf("convert rules: %w", err)
	}

	return s.syncRules(rules)
}

// syncRules makes the engine hold exactly rules, in order. Rules with an id
// that is already registered are patched in place. The rules are first
// registered on a scratch engine; when that fails the session's engine is
// left untouched.
func (s *Session) syncRules(rules []rule.Rule) error {
	err := stage(rules)
	if err != nil {
		return err
	}

	keep := map[string]struct{}{}
	for _, r := range rules {
		if r.ID != "" {
			keep[r.ID] = struct{}{}
		}
	}

	for _, r := range s.engine.Rules() {
		_, generated := s.generated[r.ID]
		if _, ok := keep[r.ID]; !ok || generated {
			s.engine.RemoveRule(r.ID)
			delete(s.generated, r.ID)
		}
	}

	order := make([]string, len(rules))

	for i, r := range withIDFirst(rules) {
		if _, ok := s.engine.Rule(r.ID); ok {
			ranges := r.Ranges
			stop := r.StopIfTrue

			_, _, err := s.engine.UpdateRule(r.ID, rule.Patch{
				Condition:  r.Condition,
				Ranges:     &ranges,
				StopIfTrue: &stop,
			})
			if err != nil {
				return err //nolint:wrapcheck // Already prefixed with the rule id.
			}

			order[i] = r.ID

			continue
		}

		registered, err := s.register(r)
		if err != nil {
			return err
		}

		order[i] = registered.ID
	}

	for pos, id := range order {
		_, err := s.engine.MoveRule(id, pos)
		if err != nil {
			return fmt.Errorf("reorder rules: %w", err)
		}
	}

	s.logger.Debug("synchronized rules",
		slog.Int("rules", len(order)),
		log.Revision(s.engine.Revision()),
	)

	return nil
}

// stage registers rules on a scratch engine in the order the session's
// engine will see them.
func stage(rules []rule.Rule) error {
	scratch := engine.New(engine.WithLogger(slog.New(slog.DiscardHandler)))

	for _, r := range withIDFirst(rules) {
		_, err := scratch.RegisterRule(r)
		if err != nil {
			return fmt.Errorf("register rule: %w", err)
		}
	}

	return nil
}

// withIDFirst yields the rules with an explicit id, then the rules without
// one, each with its list position. Generated ids then never take an id that
// a later rule names explicitly.
func withIDFirst(rules []rule.Rule) iter.Seq2[int, rule.Rule] {
	return func(yield func(int, rule.Rule) bool) {
		for _, explicit := range []bool{true, false} {
			for i, r := range rules {
				if (r.ID != "") != explicit {
					continue
				}
				if !yield(i, r) {
					return
				}
			}
		}
	}
}

func (s *Session) register(r rule.Rule) (rule.Rule, error) {
	registered, err := s.engine.RegisterRule(r)
	if err != nil {
		return rule.Rule{}, fmt.Errorf("register rule: %w", err)
	}

	if r.ID == "" {
		s.generated[registered.ID] = struct{}{}
	}

	return registered, nil
}
