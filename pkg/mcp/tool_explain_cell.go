package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/macropower/condfmt/pkg/cell"
	"github.com/macropower/condfmt/pkg/report"
)

// ExplainCellParams defines parameters for the explain_cell tool.
type ExplainCellParams struct {
	Cell string `json:"cell" jsonschema:"the cell to explain in A1 notation (e.g. B7)"`
}

func (s *Server) handleExplainCell(
	_ context.Context,
	_ *mcp.CallToolRequest,
	params ExplainCellParams,
) (*mcp.CallToolResult, report.Explanation, error) {
	a, err := cell.ParseAddress(params.Cell)
	if err != nil {
		return nil, report.Explanation{}, fmt.Errorf("INVALID INPUT ERROR: cell %q: %w", params.Cell, err)
	}

	ex, err := s.session.Explain(a)
	if err != nil {
		return nil, report.Explanation{}, err //nolint:wrapcheck // Return the original error.
	}

	return &mcp.CallToolResult{Content: textContent(formatExplanation(ex))}, ex, nil
}

func formatExplanation(ex report.Explanation) string {
	if len(ex.Candidates) == 0 {
		return fmt.Sprintf("No rule covers %s.", ex.Result.Cell)
	}

	if len(ex.Rules) == 0 {
		return fmt.Sprintf("%s is covered by %s but matched no rule.",
			ex.Result.Cell, strings.Join(ex.Candidates, ", "))
	}

	ids := make([]string, 0, len(ex.Rules))
	for _, r := range ex.Rules {
		ids = append(ids, r.ID)
	}

	return fmt.Sprintf("%s is covered by %s and matched %s.",
		ex.Result.Cell, strings.Join(ex.Candidates, ", "), strings.Join(ids, ", "))
}
