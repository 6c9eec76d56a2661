package mcp_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/macropower/condfmt/pkg/aggregate"
	"github.com/macropower/condfmt/pkg/cell"
	"github.com/macropower/condfmt/pkg/mcp"
	"github.com/macropower/condfmt/pkg/report"
	"github.com/macropower/condfmt/pkg/rule"
	"github.com/macropower/condfmt/pkg/session"
	"github.com/macropower/condfmt/pkg/workbook"
)

func newSession(t *testing.T) *session.Session {
	t.Helper()

	grid := workbook.NewGrid("Sheet1", [][]cell.Value{
		{cell.Number(1), cell.Number(20), cell.Number(3)},
		{cell.Number(4), cell.Number(5), cell.Text("x")},
	})

	s, err := session.New([]rule.Rule{
		{
			ID:     "big",
			Ranges: []cell.Range{cell.MustParseRange("A1:C2")},
			Condition: rule.ValueComparison{
				Operator: rule.OpGreaterThan,
				Operands: []cell.Value{cell.Number(10)},
			},
		},
		{
			ID:        "top",
			Ranges:    []cell.Range{cell.MustParseRange("A1:B2")},
			Condition: rule.TopBottom{Mode: aggregate.Top, Count: 2},
		},
	}, grid)
	require.NoError(t, err)

	return s
}

func connect(t *testing.T, s mcp.Session) *sdk.ClientSession {
	t.Helper()

	server := mcp.NewServer("", s)

	clientTransport, serverTransport := sdk.NewInMemoryTransports()

	ss, err := server.Server().Connect(t.Context(), serverTransport, nil)
	require.NoError(t, err)

	client := sdk.NewClient(&sdk.Implementation{Name: "test", Version: "v0.0.0"}, nil)

	cs, err := client.Connect(t.Context(), clientTransport, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		assert.NoError(t, cs.Close())
		_ = ss.Wait()
	})

	return cs
}

func call[Out any](t *testing.T, cs *sdk.ClientSession, name string, args any) (Out, *sdk.CallToolResult) {
	t.Helper()

	var out Out

	res, err := cs.CallTool(t.Context(), &sdk.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	require.NoError(t, err)

	if res.IsError {
		return out, res
	}

	data, err := json.Marshal(res.StructuredContent)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &out))

	return out, res
}

func text(res *sdk.CallToolResult) string {
	for _, c := range res.Content {
		if tc, ok := c.(*sdk.TextContent); ok {
			return tc.Text
		}
	}

	return ""
}

func TestServerTools(t *testing.T) {
	t.Parallel()

	cs := connect(t, newSession(t))

	tools, err := cs.ListTools(t.Context(), nil)
	require.NoError(t, err)

	names := make([]string, 0, len(tools.Tools))
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}

	assert.ElementsMatch(t, []string{"list_rules", "evaluate_range", "explain_cell", "reload"}, names)
}

func TestServerListRules(t *testing.T) {
	t.Parallel()

	cs := connect(t, newSession(t))

	out, res := call[mcp.ListRulesResult](t, cs, "list_rules", map[string]any{})
	require.False(t, res.IsError, text(res))

	assert.Equal(t, "Found 2 rules.", out.Message)
	require.Len(t, out.Rules, 2)
	assert.Equal(t, "big", out.Rules[0].ID)
	assert.Equal(t, "top 2", out.Rules[1].Summary)
	assert.Equal(t, 2, out.Stats.Rules)
}

func TestServerEvaluateRange(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		args      map[string]any
		cells     []string
		evaluated int
		matched   int
	}{
		"explicit range": {
			args:      map[string]any{"range": "A1:B1"},
			cells:     []string{"B1"},
			evaluated: 2,
			matched:   1,
		},
		"used area": {
			args:      map[string]any{},
			cells:     []string{"B1", "B2"},
			evaluated: 6,
			matched:   2,
		},
		"all cells": {
			args:      map[string]any{"range": "A1:A2", "all": true},
			cells:     []string{"A1", "A2"},
			evaluated: 2,
			matched:   0,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cs := connect(t, newSession(t))

			out, res := call[mcp.EvaluateRangeResult](t, cs, "evaluate_range", tc.args)
			require.False(t, res.IsError, text(res))

			got := make([]string, 0, len(out.Cells))
			for _, c := range out.Cells {
				got = append(got, c.Cell)
			}

			assert.Equal(t, tc.cells, got)
			assert.Equal(t, tc.evaluated, out.Evaluated)
			assert.Equal(t, tc.matched, out.Matched)
			assert.False(t, out.Truncated)
		})
	}
}

func TestServerEvaluateRangeInvalid(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		rng  string
		want string
	}{
		"not a range": {
			rng:  "nope",
			want: "INVALID INPUT ERROR",
		},
		"whole sheet": {
			rng:  "A1:XFD1048576",
			want: "range too large",
		},
		"one cell past the limit": {
			rng:  "A1:A100001",
			want: "A1:A100001 spans 100001 cells",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			s := newSession(t)
			cs := connect(t, s)

			_, res := call[mcp.EvaluateRangeResult](t, cs, "evaluate_range", map[string]any{"range": tc.rng})
			assert.True(t, res.IsError)
			assert.Contains(t, text(res), tc.want)
			assert.Zero(t, s.Stats().Misses)
		})
	}
}

func TestServerExplainCell(t *testing.T) {
	t.Parallel()

	cs := connect(t, newSession(t))

	out, res := call[report.Explanation](t, cs, "explain_cell", map[string]any{"cell": "B1"})
	require.False(t, res.IsError, text(res))

	assert.Equal(t, "B1 is covered by big, top and matched big, top.", text(res))
	assert.Equal(t, "B1", out.Result.Cell)
	assert.InDelta(t, 20.0, out.Result.Value, 0)
	assert.Equal(t, []string{"big", "top"}, out.Candidates)

	_, res = call[report.Explanation](t, cs, "explain_cell", map[string]any{"cell": "C2"})
	require.False(t, res.IsError, text(res))
	assert.Equal(t, "C2 is covered by big but matched no rule.", text(res))

	_, res = call[report.Explanation](t, cs, "explain_cell", map[string]any{"cell": "Z9"})
	require.False(t, res.IsError, text(res))
	assert.Equal(t, "No rule covers Z9.", text(res))

	_, res = call[report.Explanation](t, cs, "explain_cell", map[string]any{"cell": "1A"})
	assert.True(t, res.IsError)
}

// stubSession reports a fixed reload outcome.
type stubSession struct {
	*session.Session

	reloadErr error
	changed   []cell.Address
}

func (s *stubSession) ReloadValues() ([]cell.Address, error) {
	return s.changed, s.reloadErr
}

func TestServerReload(t *testing.T) {
	t.Parallel()

	cs := connect(t, &stubSession{
		Session: newSession(t),
		changed: []cell.Address{cell.MustParseAddress("A2"), cell.MustParseAddress("C2")},
	})

	out, res := call[mcp.ReloadResult](t, cs, "reload", map[string]any{"rules": true})
	require.False(t, res.IsError, text(res))

	assert.Equal(t, []string{"A2", "C2"}, out.Changed)
	assert.Equal(t, 2, out.Rules)
	assert.Equal(t, "Reloaded: 2 cells changed, 2 rules registered.", out.Message)

	failing := connect(t, &stubSession{
		Session:   newSession(t),
		reloadErr: errors.New("values.xlsx: no such file"),
	})

	_, res = call[mcp.ReloadResult](t, failing, "reload", map[string]any{})
	assert.True(t, res.IsError)
	assert.Contains(t, text(res), "no such file")
}
