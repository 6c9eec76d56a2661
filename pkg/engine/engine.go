package engine

import (
	"fmt"
	"log/slog"
	"slices"
	"strconv"

	"github.com/macropower/condfmt/pkg/cell"
	"github.com/macropower/condfmt/pkg/dirty"
	"github.com/macropower/condfmt/pkg/log"
	"github.com/macropower/condfmt/pkg/rangeindex"
	"github.com/macropower/condfmt/pkg/resolve"
	"github.com/macropower/condfmt/pkg/rule"
)

// Engine evaluates conditional formatting rules for cells.
type Engine struct {
	logger   *slog.Logger
	resolver *resolve.Resolver
	index    *rangeindex.Index
	dirty    *dirty.Tracker
	rules    map[string]rule.Rule
	cache    map[cell.Address]entry
	epochs   map[string]uint64

	// Rule ids in priority order.
	order []string

	revision     uint64
	seq          int
	nextPriority int

	hits      int
	misses    int
	evictions int
}

// Option configures an [Engine].
type Option func(*Engine)

// WithLogger sets the logger. The default is [slog.Default].
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates an empty [Engine].
func New(opts ...Option) *Engine {
	e := &Engine{
		logger: slog.Default(),
		index:  rangeindex.New(),
		dirty:  dirty.New(),
		rules:  map[string]rule.Rule{},
		cache:  map[cell.Address]entry{},
		epochs: map[string]uint64{},
	}
	for _, opt := range opts {
		opt(e)
	}

	e.resolver = resolve.NewResolver(resolve.WithLogger(e.logger))

	return e
}

// RegisterRule validates r and adds it with the lowest priority. An id of the
// form rule-<n> is assigned when r has none. The finalized copy is returned;
// r itself is not modified. Nothing is registered when an error is returned.
func (e *Engine) RegisterRule(r rule.Rule) (rule.Rule, error) {
	seq := e.seq + 1

	if r.ID == "" {
		r.ID, seq = e.generateID(seq)
	} else if _, ok := e.rules[r.ID]; ok {
		return rule.Rule{}, fmt.Errorf("register rule: %w: %q", rule.ErrDuplicateID, r.ID)
	}

	r.Priority = e.nextPriority

	out, err := r.Finalize()
	if err != nil {
		return rule.Rule{}, fmt.Errorf("register rule %q: %w", r.ID, err)
	}

	e.seq = seq
	e.nextPriority++
	e.rules[out.ID] = out
	e.order = append(e.order, out.ID)
	e.index.Add(out.ID, out.Priority, out.Ranges)
	e.bump()

	e.logger.Debug("registered rule",
		log.Rule(out.ID),
		slog.String("kind", string(out.Kind())),
		slog.Int("priority", out.Priority),
		log.Revision(e.revision),
	)

	return out.Clone(), nil
}

// generateID returns rule-<seq>, advancing seq past ids that are already
// taken.
func (e *Engine) generateID(seq int) (string, int) {
	for {
		id := "rule-" + strconv.Itoa(seq)
		if _, ok := e.rules[id]; !ok {
			return id, seq
		}

		seq++
	}
}

// UpdateRule merges p into the rule with the given id. It returns false
// without error when the id is unknown. The rule is left unchanged when an
// error is returned.
func (e *Engine) UpdateRule(id string, p rule.Patch) (rule.Rule, bool, error) {
	old, ok := e.rules[id]
	if !ok {
		return rule.Rule{}, false, nil
	}

	out, err := p.Apply(old).Finalize()
	if err != nil {
		return rule.Rule{}, true, fmt.Errorf("update rule %q: %w", id, err)
	}

	if p.ChangesRanges(old) {
		e.index.Add(id, out.Priority, out.Ranges)
	}

	e.rules[id] = out
	e.bump()

	e.logger.Debug("updated rule",
		log.Rule(id),
		slog.String("kind", string(out.Kind())),
		log.Revision(e.revision),
	)

	return out.Clone(), true, nil
}

// RemoveRule removes the rule with the given id. It reports whether the rule
// existed.
func (e *Engine) RemoveRule(id string) bool {
	if _, ok := e.rules[id]; !ok {
		return false
	}

	delete(e.rules, id)
	delete(e.epochs, id)
	e.order = slices.DeleteFunc(e.order, func(s string) bool { return s == id })
	e.index.Remove(id)
	e.bump()

	e.logger.Debug("removed rule",
		log.Rule(id),
		log.Revision(e.revision),
	)

	return true
}

// MoveRule moves the rule with the given id to position in the priority
// order, 0 being the highest, and renumbers all priorities to match their
// positions. It returns false without error when the id is unknown.
func (e *Engine) MoveRule(id string, position int) (bool, error) {
	from := slices.Index(e.order, id)
	if from < 0 {
		return false, nil
	}
	if position < 0 || position >= len(e.order) {
		return true, fmt.Errorf("move rule %q: %w: position %d outside [0, %d]",
			id, rule.ErrInvalidParameter, position, len(e.order)-1)
	}

	e.order = slices.Delete(e.order, from, from+1)
	e.order = slices.Insert(e.order, position, id)

	for i, rid := range e.order {
		r := e.rules[rid]
		r.Priority = i
		e.rules[rid] = r
		e.index.Reprioritize(rid, i)
	}

	e.nextPriority = len(e.order)
	e.bump()

	e.logger.Debug("moved rule",
		log.Rule(id),
		slog.Int("from", from),
		slog.Int("to", position),
		log.Revision(e.revision),
	)

	return true, nil
}

// Rules returns copies of all rules in priority order.
func (e *Engine) Rules() []rule.Rule {
	out := make([]rule.Rule, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, e.rules[id].Clone())
	}

	return out
}

// Rule returns a copy of the rule with the given id.
func (e *Engine) Rule(id string) (rule.Rule, bool) {
	r, ok := e.rules[id]
	if !ok {
		return rule.Rule{}, false
	}

	return r.Clone(), true
}

// Revision returns the rule set revision. It increases on every register,
// update, remove and move.
func (e *Engine) Revision() uint64 {
	return e.revision
}

// MarkCellDirty marks a cell whose value changed.
func (e *Engine) MarkCellDirty(a cell.Address) {
	e.dirty.Mark(a)
	e.touch(e.index.RulesContaining(a))
}

// MarkRangeDirty marks every cell in r as changed.
func (e *Engine) MarkRangeDirty(r cell.Range) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("mark range dirty: %w: %w", rule.ErrInvalidRange, err)
	}

	e.dirty.MarkRange(r)
	e.touch(e.index.RulesIntersecting(r))

	e.logger.Debug("marked range dirty", log.Range(r))

	return nil
}

// touch advances the data epoch of every range-aware rule in ids.
func (e *Engine) touch(ids []string) {
	for _, id := range ids {
		if e.rules[id].RangeAware() {
			e.epochs[id]++
		}
	}
}

// bump advances the revision and drops all cached results.
func (e *Engine) bump() {
	e.revision++
	e.evictions += len(e.cache)
	clear(e.cache)
}

// candidates returns the rules covering a in priority order.
func (e *Engine) candidates(a cell.Address) []rule.Rule {
	ids := e.index.RulesContaining(a)

	out := make([]rule.Rule, 0, len(ids))
	for _, id := range ids {
		out = append(out, e.rules[id])
	}

	return out
}

// Stats is a snapshot of engine counters.
type Stats struct {
	Rules         int    `json:"rules"         yaml:"rules"`
	CachedResults int    `json:"cachedResults" yaml:"cachedResults"`
	DirtyCells    int    `json:"dirtyCells"    yaml:"dirtyCells"`
	Hits          int    `json:"hits"          yaml:"hits"`
	Misses        int    `json:"misses"        yaml:"misses"`
	Evictions     int    `json:"evictions"     yaml:"evictions"`
	Revision      uint64 `json:"revision"      yaml:"revision"`
}

// Stats returns the current counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Rules:         len(e.rules),
		CachedResults: len(e.cache),
		DirtyCells:    e.dirty.Len(),
		Hits:          e.hits,
		Misses:        e.misses,
		Evictions:     e.evictions,
		Revision:      e.revision,
	}
}
