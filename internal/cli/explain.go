package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/macropower/condfmt/pkg/cell"
)

const explainExamples = `  # Show every rule covering B7 and the ones that matched:
  condfmt explain ./budget.xlsx B7

  # Same, as YAML:
  condfmt explain ./budget.xlsx B7 -o yaml`

type ExplainArgs struct {
	*RootArgs
	OutputArgs

	Values string
	Cell   string
}

func NewExplainArgs(rootArgs *RootArgs) *ExplainArgs {
	return &ExplainArgs{
		RootArgs: rootArgs,
	}
}

func NewExplainCmd(ea *ExplainArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "explain VALUES CELL",
		Short:   "Explain why a cell is formatted the way it is",
		Example: explainExamples,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ea.Values = args[0]
			ea.Cell = args[1]

			return runExplain(cmd, ea)
		},
	}
	ea.OutputArgs.AddFlags(cmd)

	bindEnvVars(cmd)

	return cmd
}

func runExplain(cmd *cobra.Command, ea *ExplainArgs) error {
	a, err := cell.ParseAddress(ea.Cell)
	if err != nil {
		return fmt.Errorf("invalid argument %q: %w", ea.Cell, err)
	}

	r, err := ea.renderer(cmd.OutOrStdout())
	if err != nil {
		return err
	}

	s, err := ea.openSession(ea.Values)
	if err != nil {
		return err
	}

	ex, err := s.Explain(a)
	if err != nil {
		return err //nolint:wrapcheck // Return the original error.
	}

	return r.Explanation(ex) //nolint:wrapcheck // Return the original error.
}
