package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/macropower/condfmt/pkg/mcp"
)

const serveExamples = `  # Serve over stdio, for MCP clients that launch the server:
  condfmt serve-mcp ./budget.xlsx

  # Serve over streamable HTTP:
  condfmt serve-mcp ./budget.xlsx --address localhost:8080`

type ServeMCPArgs struct {
	*RootArgs

	Values  string
	Address string
}

func NewServeMCPArgs(rootArgs *RootArgs) *ServeMCPArgs {
	return &ServeMCPArgs{
		RootArgs: rootArgs,
	}
}

func NewServeMCPCmd(sa *ServeMCPArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve-mcp VALUES",
		Short:   "Serve the rule evaluation and inspection tools over MCP",
		Example: serveExamples,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sa.Values = args[0]

			s, err := sa.openSession(sa.Values)
			if err != nil {
				return err
			}

			err = mcp.NewServer(sa.Address, s).Serve(cmd.Context())
			if err != nil {
				return fmt.Errorf("serve MCP: %w", err)
			}

			return nil
		},
	}
	cmd.Flags().StringVar(&sa.Address, "address", "", "Serve streamable HTTP at this address instead of stdio")

	bindEnvVars(cmd)

	return cmd
}
