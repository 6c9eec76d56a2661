package session_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/condfmt/pkg/cell"
	"github.com/macropower/condfmt/pkg/report"
	"github.com/macropower/condfmt/pkg/rule"
	"github.com/macropower/condfmt/pkg/session"
	"github.com/macropower/condfmt/pkg/workbook"
)

const rulesYAML = `apiVersion: condfmt.macropower.dev/v1beta1
kind: RuleSet
rules:
  - id: big
    kind: value-comparison
    ranges: [A1:C2]
    operator: greaterThan
    operands: [10]
  - id: top
    kind: top-bottom
    ranges: [A1:C2]
    mode: top
    count: 1
`

const valuesYAML = `sheet: Data
rows:
  - [1, 20, 3]
  - [4, 5, "x"]
`

func write(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func open(t *testing.T) (*session.Session, string, string) {
	t.Helper()

	dir := t.TempDir()
	rulesPath := write(t, dir, "rules.yaml", rulesYAML)
	valuesPath := write(t, dir, "values.yaml", valuesYAML)

	s, err := session.Open(rulesPath, valuesPath)
	require.NoError(t, err)

	return s, rulesPath, valuesPath
}

func matchedRules(c report.Cell) []string {
	ids := make([]string, 0, len(c.Matches))
	for _, m := range c.Matches {
		ids = append(ids, m.Rule)
	}

	return ids
}

func TestOpen(t *testing.T) {
	t.Parallel()

	s, _, _ := open(t)

	assert.Equal(t, "Data", s.Sheet())

	bounds, ok := s.Bounds()
	require.True(t, ok)
	assert.Equal(t, "A1:C2", bounds.String())

	rules := s.Rules()
	require.Len(t, rules, 2)
	assert.Equal(t, "big", rules[0].ID)
	assert.Equal(t, "top", rules[1].ID)
}

func TestOpenErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	rulesPath := write(t, dir, "rules.yaml", rulesYAML)
	valuesPath := write(t, dir, "values.yaml", valuesYAML)

	tcs := map[string]struct {
		rules  string
		values string
		errMsg string
	}{
		"missing rules": {
			rules:  filepath.Join(dir, "missing.yaml"),
			values: valuesPath,
			errMsg: "load rules",
		},
		"missing values": {
			rules:  rulesPath,
			values: filepath.Join(dir, "missing.yaml"),
			errMsg: "load values",
		},
		"unsupported values": {
			rules:  rulesPath,
			values: write(t, dir, "values.csv", "1,2"),
			errMsg: "load values",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := session.Open(tc.rules, tc.values)
			require.ErrorContains(t, err, tc.errMsg)
		})
	}
}

func TestEvaluate(t *testing.T) {
	t.Parallel()

	s, _, _ := open(t)

	cells, evaluated, err := s.Evaluate([]cell.Range{
		cell.MustParseRange("A1:C1"),
		cell.MustParseRange("B1:B2"),
	}, false)
	require.NoError(t, err)

	assert.Equal(t, 4, evaluated)
	require.Len(t, cells, 1)
	assert.Equal(t, "B1", cells[0].Cell)
	assert.Equal(t, []string{"big", "top"}, matchedRules(cells[0]))

	all, evaluated, err := s.Evaluate([]cell.Range{cell.MustParseRange("A1:C2")}, true)
	require.NoError(t, err)
	assert.Equal(t, 6, evaluated)
	assert.Len(t, all, 6)
}

func TestExplain(t *testing.T) {
	t.Parallel()

	s, _, _ := open(t)

	ex, err := s.Explain(cell.MustParseAddress("B1"))
	require.NoError(t, err)

	assert.Equal(t, "B1", ex.Result.Cell)
	assert.Equal(t, []string{"big", "top"}, ex.Candidates)
	require.Len(t, ex.Rules, 2)
	assert.Equal(t, "greaterThan 10", ex.Rules[0].Summary)
}

func TestReloadValues(t *testing.T) {
	t.Parallel()

	s, _, valuesPath := open(t)

	_, _, err := s.Evaluate([]cell.Range{cell.MustParseRange("A1:C2")}, false)
	require.NoError(t, err)

	write(t, filepath.Dir(valuesPath), "values.yaml", `sheet: Data
rows:
  - [1, 20, 3]
  - [40, 5, "x"]
`)

	changed, err := s.ReloadValues()
	require.NoError(t, err)
	assert.Equal(t, []cell.Address{cell.MustParseAddress("A2")}, changed)

	cells, _, err := s.Evaluate([]cell.Range{cell.MustParseRange("A1:C2")}, false)
	require.NoError(t, err)
	require.Len(t, cells, 2)

	assert.Equal(t, "B1", cells[0].Cell)
	assert.Equal(t, []string{"big"}, matchedRules(cells[0]))
	assert.Equal(t, "A2", cells[1].Cell)
	assert.Equal(t, []string{"big", "top"}, matchedRules(cells[1]))
}

func TestReloadRules(t *testing.T) {
	t.Parallel()

	s, rulesPath, _ := open(t)

	write(t, filepath.Dir(rulesPath), "rules.yaml", `apiVersion: condfmt.macropower.dev/v1beta1
kind: RuleSet
rules:
  - id: top
    kind: top-bottom
    ranges: [A1:C2]
    mode: bottom
    count: 1
  - kind: duplicate
    ranges: [A1:C2]
    unique: true
`)

	require.NoError(t, s.ReloadRules())

	rules := s.Rules()
	require.Len(t, rules, 2)
	assert.Equal(t, "top", rules[0].ID)
	assert.Equal(t, "bottom 1", rules[0].Summary)
	assert.Equal(t, 0, rules[0].Priority)
	assert.Equal(t, "duplicate", rules[1].Kind)
	assert.Equal(t, 1, rules[1].Priority)

	generated := rules[1].ID

	// Rules without an id are replaced on every reload.
	require.NoError(t, s.ReloadRules())

	rules = s.Rules()
	require.Len(t, rules, 2)
	assert.NotEqual(t, generated, rules[1].ID)

	stats := s.Stats()
	assert.Equal(t, 2, stats.Rules)
}

func TestReloadRulesInvalid(t *testing.T) {
	t.Parallel()

	s, rulesPath, _ := open(t)

	write(t, filepath.Dir(rulesPath), "rules.yaml", `apiVersion: condfmt.macropower.dev/v1beta1
kind: RuleSet
rules:
  - id: broken
    kind: sparkle
    ranges: [A1]
`)

	require.Error(t, s.ReloadRules())

	rules := s.Rules()
	require.Len(t, rules, 2)
	assert.Equal(t, "big", rules[0].ID)
}

func TestReloadRulesDuplicateID(t *testing.T) {
	t.Parallel()

	s, rulesPath, _ := open(t)
	before := s.Rules()

	write(t, filepath.Dir(rulesPath), "rules.yaml", `apiVersion: condfmt.macropower.dev/v1beta1
kind: RuleSet
rules:
  - id: big
    kind: value-comparison
    ranges: [A1:C2]
    operator: lessThan
    operands: [0]
  - id: dup
    kind: duplicate
    ranges: [A1:C2]
  - id: dup
    kind: duplicate
    ranges: [A1:C2]
    unique: true
`)

	err := s.ReloadRules()
	require.ErrorIs(t, err, rule.ErrDuplicateID)
	assert.NotContains(t, err.Error(), "move rule")

	assert.Equal(t, before, s.Rules())
	assert.Equal(t, "greaterThan 10", s.Rules()[0].Summary)
}

func TestReloadRulesGeneratedIDs(t *testing.T) {
	t.Parallel()

	s, rulesPath, _ := open(t)

	write(t, filepath.Dir(rulesPath), "rules.yaml", `apiVersion: condfmt.macropower.dev/v1beta1
kind: RuleSet
rules:
  - kind: duplicate
    ranges: [A1:C2]
  - id: rule-1
    kind: value-comparison
    ranges: [A1:C2]
    operator: greaterThan
    operands: [10]
  - id: top
    kind: top-bottom
    ranges: [A1:C2]
    mode: top
    count: 1
`)

	require.NoError(t, s.ReloadRules())

	rules := s.Rules()
	require.Len(t, rules, 3)
	assert.Equal(t, "duplicate", rules[0].Kind)
	assert.NotEqual(t, "rule-1", rules[0].ID)
	assert.Equal(t, "rule-1", rules[1].ID)
	assert.Equal(t, "top", rules[2].ID)

	for i, r := range rules {
		assert.Equal(t, i, r.Priority)
	}
}

func TestNewDuplicateID(t *testing.T) {
	t.Parallel()

	grid := workbook.NewGrid("Sheet1", [][]cell.Value{{cell.Number(1)}})
	r := rule.Rule{
		ID:        "a",
		Ranges:    []cell.Range{cell.MustParseRange("A1")},
		Condition: rule.Duplicate{},
	}

	_, err := session.New([]rule.Rule{r, r}, grid)
	require.ErrorIs(t, err, rule.ErrDuplicateID)
}

func TestNew(t *testing.T) {
	t.Parallel()

	grid := workbook.NewGrid("Sheet1", [][]cell.Value{{cell.Number(3), cell.Number(3)}})

	s, err := session.New([]rule.Rule{{
		Ranges:    []cell.Range{cell.MustParseRange("A1:B1")},
		Condition: rule.Duplicate{},
	}}, grid)
	require.NoError(t, err)

	cells, _, err := s.Evaluate([]cell.Range{cell.MustParseRange("A1:B1")}, false)
	require.NoError(t, err)
	assert.Len(t, cells, 2)

	changed, err := s.ReloadValues()
	require.NoError(t, err)
	assert.Empty(t, changed)
	require.NoError(t, s.ReloadRules())
}
