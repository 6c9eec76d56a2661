package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/macropower/condfmt/pkg/cell"
	"github.com/macropower/condfmt/pkg/report"
)

var (
	// ErrEmptySheet indicates a sheet without any values.
	ErrEmptySheet = errors.New("sheet has no values")
	// ErrRangeTooLarge indicates a range spanning more cells than a single
	// call evaluates.
	ErrRangeTooLarge = errors.New("range too large")
)

// EvaluateRangeParams defines parameters for the evaluate_range tool.
type EvaluateRangeParams struct {
	Range string `json:"range,omitempty" jsonschema:"the range to evaluate in A1 notation (e.g. A1:D20); defaults to the used area of the sheet"`
	All   bool   `json:"all,omitempty"   jsonschema:"also return cells that matched no rule"`
}

// EvaluateRangeResult contains the evaluation result of a range.
type EvaluateRangeResult struct {
	Message   string        `json:"message"`
	Range     string        `json:"range"     jsonschema:"the evaluated range"`
	Cells     []report.Cell `json:"cells"     jsonschema:"the returned cells in row-major order"`
	Evaluated int           `json:"evaluated" jsonschema:"the number of cells evaluated"`
	Matched   int           `json:"matched"   jsonschema:"the number of cells matched by at least one rule"`
	Truncated bool          `json:"truncated" jsonschema:"whether cells were dropped to bound the response size"`
}

func (s *Server) handleEvaluateRange(
	_ context.Context,
	_ *mcp.CallToolRequest,
	params EvaluateRangeParams,
) (*mcp.CallToolResult, EvaluateRangeResult, error) {
	var (
		r   cell.Range
		err error
	)

	if params.Range == "" {
		var ok bool

		r, ok = s.session.Bounds()
		if !ok {
			return nil, EvaluateRangeResult{}, ErrEmptySheet
		}
	} else {
		r, err = cell.ParseRange(params.Range)
		if err != nil {
			return nil, EvaluateRangeResult{}, fmt.Errorf("INVALID INPUT ERROR: range %q: %w", params.Range, err)
		}
	}

	if r.Size() > maxEvaluated {
		return nil, EvaluateRangeResult{}, fmt.Errorf("INVALID INPUT ERROR: %w: %s spans %d cells, at most %d can be evaluated at once",
			ErrRangeTooLarge, r, r.Size(), maxEvaluated)
	}

	cells, evaluated, err := s.session.Evaluate([]cell.Range{r}, params.All)
	if err != nil {
		return nil, EvaluateRangeResult{}, err //nolint:wrapcheck // Return the original error.
	}

	result := EvaluateRangeResult{
		Range:     r.String(),
		Evaluated: evaluated,
		Cells:     cells,
	}

	for _, c := range cells {
		if len(c.Matches) > 0 {
			result.Matched++
		}
	}

	if len(result.Cells) > maxCells {
		result.Cells = result.Cells[:maxCells]
		result.Truncated = true
	}

	result.Message = fmt.Sprintf("Evaluated %d cells in %s, %d matched.", evaluated, result.Range, result.Matched)
	if result.Truncated {
		result.Message += fmt.Sprintf(" Only the first %d cells are listed; evaluate a smaller range to see the rest.", maxCells)
	}

	return &mcp.CallToolResult{Content: textContent(result.Message)}, result, nil
}
