package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/macropower/condfmt/api/v1beta1/rulesets"
	"github.com/macropower/condfmt/pkg/session"
	"github.com/macropower/condfmt/pkg/workbook"
)

type RulesArgs struct {
	*RootArgs
	OutputArgs
}

func NewRulesArgs(rootArgs *RootArgs) *RulesArgs {
	return &RulesArgs{
		RootArgs: rootArgs,
	}
}

func NewRulesCmd(ra *RulesArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules [PATH]",
		Short: "Validate a rule set and list its rules in priority order",
		Long: "Validate a rule set and list its rules in priority order.\n\n" +
			"The rule set is read from --rules, or from the nearest rule-set file above PATH.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			near := "."
			if len(args) > 0 {
				near = args[0]
			}

			return runRules(cmd, ra, near)
		},
	}
	ra.OutputArgs.AddFlags(cmd)

	bindEnvVars(cmd)

	return cmd
}

func runRules(cmd *cobra.Command, ra *RulesArgs, near string) error {
	r, err := ra.renderer(cmd.OutOrStdout())
	if err != nil {
		return err
	}

	path, err := ra.rulesPath(near)
	if err != nil {
		return err
	}

	rs, err := rulesets.Load(path)
	if err != nil {
		return fmt.Errorf("load %q: %w", path, err)
	}

	rules, err := rs.ToRules()
	if err != nil {
		return fmt.Errorf("load %q: %w", path, err)
	}

	s, err := session.New(rules, workbook.NewGrid("", nil))
	if err != nil {
		return fmt.Errorf("load %q: %w", path, err)
	}

	return r.Rules(s.Rules()) //nolint:wrapcheck // Return the original error.
}
