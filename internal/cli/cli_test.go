package cli_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/condfmt/api/v1beta1/rulesets"
	"github.com/macropower/condfmt/internal/cli"
)

const (
	testRules = `apiVersion: condfmt.macropower.dev/v1beta1
kind: RuleSet
rules:
  - id: big
    kind: value-comparison
    ranges: [A1:C2]
    operator: greaterThan
    operands: [10]
  - id: dupes
    kind: duplicate
    ranges: [A1:C2]
`
	testValues = `rows:
  - [1, 20, 3]
  - [3, 5, "x"]
`
)

// workspace writes the rule set as .condfmt.yaml next to the values, so it
// is found without --rules.
func workspace(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".condfmt.yaml"), []byte(testRules), 0o600))

	values := filepath.Join(dir, "values.yaml")
	require.NoError(t, os.WriteFile(values, []byte(testValues), 0o600))

	return values
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer

	cmd := cli.NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))

	err := cmd.Execute()

	return stdout.String(), err
}

type cellJSON struct {
	Cell    string `json:"cell"`
	Matches []struct {
		Rule string `json:"rule"`
	} `json:"matches"`
}

func TestEval(t *testing.T) {
	t.Parallel()

	values := workspace(t)

	tcs := map[string]struct {
		args  []string
		cells []string
	}{
		"used area": {
			args:  []string{"eval", values, "-o", "json"},
			cells: []string{"B1", "C1", "A2"},
		},
		"explicit ranges": {
			args:  []string{"eval", values, "A1:B1", "B1", "-o", "json"},
			cells: []string{"B1"},
		},
		"all cells": {
			args:  []string{"eval", values, "A2:C2", "--all", "-o", "json"},
			cells: []string{"A2", "B2", "C2"},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			out, err := execute(t, tc.args...)
			require.NoError(t, err)

			var cells []cellJSON
			require.NoError(t, json.Unmarshal([]byte(out), &cells))

			got := make([]string, 0, len(cells))
			for _, c := range cells {
				got = append(got, c.Cell)
			}

			assert.Equal(t, tc.cells, got)
		})
	}
}

func TestEvalTable(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "eval", workspace(t))
	require.NoError(t, err)

	assert.Contains(t, out, "B1")
	assert.Contains(t, out, "dupes (2 occurrences)")
	assert.Contains(t, out, "3 of 6 cells matched")
}

func TestEvalErrors(t *testing.T) {
	t.Parallel()

	values := workspace(t)

	tcs := map[string]struct {
		target error
		errMsg string
		args   []string
	}{
		"missing values argument": {
			args:   []string{"eval"},
			errMsg: "requires at least 1 arg",
		},
		"invalid range": {
			args:   []string{"eval", values, "1A"},
			errMsg: "invalid argument",
		},
		"unknown format": {
			args:   []string{"eval", values, "-o", "csv"},
			errMsg: "unknown output format",
		},
		"no rule set": {
			args:   []string{"eval", filepath.Join(t.TempDir())},
			target: cli.ErrNoRules,
		},
		"explicit missing rule set": {
			args:   []string{"eval", values, "--rules", filepath.Join(t.TempDir(), "missing.yaml")},
			errMsg: "load rules",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := execute(t, tc.args...)
			require.Error(t, err)

			if tc.target != nil {
				require.ErrorIs(t, err, tc.target)
			}
			if tc.errMsg != "" {
				assert.ErrorContains(t, err, tc.errMsg)
			}
		})
	}
}

func TestExplain(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "explain", workspace(t), "A2", "-o", "json")
	require.NoError(t, err)

	var ex struct {
		Result     cellJSON `json:"result"`
		Candidates []string `json:"candidates"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &ex))

	assert.Equal(t, "A2", ex.Result.Cell)
	assert.Equal(t, []string{"big", "dupes"}, ex.Candidates)
	require.Len(t, ex.Result.Matches, 1)
	assert.Equal(t, "dupes", ex.Result.Matches[0].Rule)

	_, err = execute(t, "explain", workspace(t), "A2:B2")
	require.ErrorContains(t, err, "invalid argument")
}

func TestRules(t *testing.T) {
	t.Parallel()

	values := workspace(t)

	out, err := execute(t, "rules", filepath.Dir(values), "-o", "yaml")
	require.NoError(t, err)

	assert.Contains(t, out, "id: big")
	assert.Contains(t, out, "summary: greaterThan 10")
	assert.Contains(t, out, "id: dupes")

	out, err = execute(t, "rules", "--rules", filepath.Join(filepath.Dir(values), ".condfmt.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "dupes")
}

func TestSchema(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "schema")
	require.NoError(t, err)
	assert.JSONEq(t, string(rulesets.SchemaJSON), out)
}

func TestInit(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, rulesets.FileNames[0])

	_, err := execute(t, "init", dir)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, rulesets.Example, data)

	_, err = rulesets.Load(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("custom"), 0o600))

	_, err = execute(t, "init", dir)
	require.NoError(t, err)

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "custom", string(data))

	_, err = execute(t, "init", dir, "--force")
	require.NoError(t, err)

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, rulesets.Example, data)

	backups, err := filepath.Glob(filepath.Join(dir, rulesets.FileNames[0]+".*.old"))
	require.NoError(t, err)
	assert.Len(t, backups, 1)
}
