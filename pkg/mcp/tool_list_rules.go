package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/macropower/condfmt/pkg/engine"
	"github.com/macropower/condfmt/pkg/report"
)

// ListRulesParams defines parameters for the list_rules tool.
type ListRulesParams struct{}

// ListRulesResult contains the registered rules.
type ListRulesResult struct {
	Message string        `json:"message"`
	Rules   []report.Rule `json:"rules"   jsonschema:"the registered rules in priority order"`
	Stats   engine.Stats  `json:"stats"   jsonschema:"engine cache statistics"`
}

func (s *Server) handleListRules(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ ListRulesParams,
) (*mcp.CallToolResult, ListRulesResult, error) {
	result := ListRulesResult{
		Rules: s.session.Rules(),
		Stats: s.session.Stats(),
	}

	result.Message = fmt.Sprintf("Found %d rules.", len(result.Rules))

	return &mcp.CallToolResult{Content: textContent(result.Message)}, result, nil
}
