package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ReloadParams defines parameters for the reload tool.
type ReloadParams struct {
	Rules bool `json:"rules,omitempty" jsonschema:"also re-read the rule set"`
}

// ReloadResult contains the cells that changed on reload.
type ReloadResult struct {
	Message string   `json:"message"`
	Changed []string `json:"changed" jsonschema:"cells whose value changed, in A1 notation"`
	Rules   int      `json:"rules"   jsonschema:"the number of registered rules after the reload"`
}

func (s *Server) handleReload(
	_ context.Context,
	_ *mcp.CallToolRequest,
	params ReloadParams,
) (*mcp.CallToolResult, ReloadResult, error) {
	if params.Rules {
		err := s.session.ReloadRules()
		if err != nil {
			return nil, ReloadResult{}, err //nolint:wrapcheck // Return the original error.
		}
	}

	changed, err := s.session.ReloadValues()
	if err != nil {
		return nil, ReloadResult{}, err //nolint:wrapcheck // Return the original error.
	}

	result := ReloadResult{
		Changed: make([]string, 0, len(changed)),
		Rules:   len(s.session.Rules()),
	}
	for _, a := range changed {
		result.Changed = append(result.Changed, a.String())
	}

	result.Message = fmt.Sprintf("Reloaded: %d cells changed, %d rules registered.", len(result.Changed), result.Rules)

	return &mcp.CallToolResult{Content: textContent(result.Message)}, result, nil
}
